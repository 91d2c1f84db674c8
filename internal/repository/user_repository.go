package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/residence-ops/residence-tickets/internal/domain"
)

const (
	userColumns        = `id::text, first_name, last_name, email, password_hash, created_at, updated_at`
	uniqueViolationSQL = "23505"
)

type userRepository struct {
	db PoolProvider
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db PoolProvider) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO users (first_name, last_name, email, password_hash)
        VALUES ($1, $2, $3, $4)
        RETURNING id::text, created_at, updated_at`

	err = pool.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return translateUserErr(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1::uuid`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}
	query := `
        UPDATE users SET
            first_name = COALESCE($2::text, first_name),
            last_name = COALESCE($3::text, last_name),
            email = COALESCE($4::text, email),
            password_hash = COALESCE($5::text, password_hash),
            updated_at = GREATEST(clock_timestamp(), updated_at)
        WHERE id = $1::uuid
        RETURNING ` + userColumns
	user, err := scanUser(pool.QueryRow(ctx, query, id, patch.FirstName, patch.LastName, patch.Email, patch.PasswordHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateUserErr(err)
	}
	return user, nil
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}
	user, err := scanUser(pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func translateUserErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationSQL {
		return ErrDuplicateEmail
	}
	return err
}
