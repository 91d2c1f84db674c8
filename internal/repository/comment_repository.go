package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/residence-ops/residence-tickets/internal/domain"
)

type commentRepository struct {
	db PoolProvider
}

// NewCommentRepository returns a Postgres-backed implementation.
func NewCommentRepository(db PoolProvider) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO comments (ticket_id, author_id, content)
        VALUES ($1::uuid, $2::uuid, $3)
        RETURNING id::text, created_at`
	return pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorID,
		comment.Content,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}
	const query = `
        SELECT id::text, ticket_id::text, author_id::text, content, created_at
        FROM comments WHERE id = $1::uuid`
	var comment domain.Comment
	err = pool.QueryRow(ctx, query, id).Scan(
		&comment.ID,
		&comment.TicketID,
		&comment.AuthorID,
		&comment.Content,
		&comment.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}
	const query = `
        SELECT id::text, ticket_id::text, author_id::text, content, created_at
        FROM comments WHERE ticket_id = $1::uuid ORDER BY created_at ASC, id ASC`
	rows, err := pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Comment{}
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.Content,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
