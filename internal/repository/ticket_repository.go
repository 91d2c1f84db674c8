package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/residence-ops/residence-tickets/internal/domain"
)

const ticketColumns = `id::text, title, description, status, assigned_to::text, version, created_at, updated_at`

type ticketRepository struct {
	db PoolProvider
}

// NewTicketRepository returns a Postgres-backed implementation.
func NewTicketRepository(db PoolProvider) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO tickets (title, description, status, assigned_to, created_at, updated_at)
        VALUES ($1, $2, $3, $4::uuid, NOW(), NOW())
        RETURNING id::text, version, created_at, updated_at`
	return pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		string(ticket.Status),
		ticket.AssignedTo,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1::uuid`
	ticket, err := scanTicket(pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ticket, err
}

func (r *ticketRepository) List(ctx context.Context) ([]domain.Ticket, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC, id DESC`
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Update(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	query := `
        UPDATE tickets SET
            title = COALESCE($2::text, title),
            description = COALESCE($3::text, description),
            status = COALESCE($4::text, status),
            assigned_to = CASE WHEN $5::boolean THEN $6::uuid ELSE assigned_to END,
            version = version + 1,
            updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')
        WHERE id = $1::uuid AND ($7::bigint IS NULL OR version = $7::bigint)
        RETURNING ` + ticketColumns
	ticket, err := scanTicket(pool.QueryRow(ctx, query,
		id,
		patch.Title,
		patch.Description,
		status,
		patch.AssignedTo.Set,
		patch.AssignedTo.Value,
		patch.ExpectedVersion,
	))
	if err == nil {
		return ticket, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if patch.ExpectedVersion == nil {
		return nil, nil
	}

	var exists bool
	if err := pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id = $1::uuid)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrVersionConflict
	}
	return nil, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var status string
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&status,
		&ticket.AssignedTo,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ticket.Status = domain.TicketStatus(status)
	return &ticket, nil
}
