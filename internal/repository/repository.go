// Package repository holds the persistence contracts for tickets, comments
// and users together with their Postgres, in-memory and caching adapters.
//
// Every adapter follows the same conventions: GetByID returns (nil, nil)
// when nothing matches, Create assigns the identifier and timestamps on the
// entity it is given, and Update merges a partial patch and returns
// (nil, nil) when the row no longer exists.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/residence-ops/residence-tickets/internal/domain"
)

// ErrVersionConflict is returned by TicketRepository.Update when the patch
// carries an expected version that no longer matches the stored one.
var ErrVersionConflict = errors.New("ticket version conflict")

// ErrDuplicateEmail is returned when a user email is already taken.
var ErrDuplicateEmail = errors.New("email already registered")

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// List returns every ticket, most recently created first.
	List(ctx context.Context) ([]domain.Ticket, error)
	Update(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error)
}

// CommentRepository manages ticket thread comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	// ListByTicket returns the thread oldest first.
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

// UserRepository defines persistence access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns users ordered by last then first name.
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
}

// PoolProvider yields the shared pgx pool, establishing it on first use.
type PoolProvider interface {
	Pool(ctx context.Context) (*pgxpool.Pool, error)
}
