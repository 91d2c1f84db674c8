package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/residence-ops/residence-tickets/internal/domain"
)

// Clock returns the current time. Memory adapters take one so tests can
// control timestamps.
type Clock func() time.Time

// MemoryStore backs the in-memory adapters. It is used by tests and when
// the service runs without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	now      Clock
	tickets  []*domain.Ticket
	comments []*domain.Comment
	users    []*domain.User
}

// NewMemoryStore returns an empty store. A nil clock defaults to time.Now.
func NewMemoryStore(now Clock) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{now: now}
}

// Tickets returns a TicketRepository view of the store.
func (s *MemoryStore) Tickets() TicketRepository { return memoryTickets{s} }

// Comments returns a CommentRepository view of the store.
func (s *MemoryStore) Comments() CommentRepository { return memoryComments{s} }

// Users returns a UserRepository view of the store.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// tick returns a timestamp strictly after prev.
func (s *MemoryStore) tick(prev time.Time) time.Time {
	now := s.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

type memoryTickets struct{ s *MemoryStore }

func (r memoryTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var last time.Time
	if n := len(r.s.tickets); n > 0 {
		last = r.s.tickets[n-1].CreatedAt
	}
	now := r.s.now().UTC()
	if now.Before(last) {
		now = last
	}

	ticket.ID = domain.NewID()
	ticket.Version = 1
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	stored := copyTicket(ticket)
	r.s.tickets = append(r.s.tickets, &stored)
	return nil
}

func (r memoryTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if t := r.s.findTicket(id); t != nil {
		ticket := copyTicket(t)
		return &ticket, nil
	}
	return nil, nil
}

func (r memoryTickets) List(_ context.Context) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make([]domain.Ticket, 0, len(r.s.tickets))
	for i := len(r.s.tickets) - 1; i >= 0; i-- {
		result = append(result, copyTicket(r.s.tickets[i]))
	}
	return result, nil
}

func (r memoryTickets) Update(_ context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.findTicket(id)
	if t == nil {
		return nil, nil
	}
	if patch.ExpectedVersion != nil && *patch.ExpectedVersion != t.Version {
		return nil, ErrVersionConflict
	}
	patch.Apply(t)
	t.Version++
	t.UpdatedAt = r.s.tick(t.UpdatedAt)
	ticket := copyTicket(t)
	return &ticket, nil
}

func (s *MemoryStore) findTicket(id string) *domain.Ticket {
	for _, t := range s.tickets {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func copyTicket(t *domain.Ticket) domain.Ticket {
	ticket := *t
	if t.AssignedTo != nil {
		assignee := *t.AssignedTo
		ticket.AssignedTo = &assignee
	}
	return ticket
}

type memoryComments struct{ s *MemoryStore }

func (r memoryComments) Create(_ context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	comment.ID = domain.NewID()
	comment.CreatedAt = r.s.now().UTC()
	stored := *comment
	r.s.comments = append(r.s.comments, &stored)
	return nil
}

func (r memoryComments) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.comments {
		if c.ID == id {
			comment := *c
			return &comment, nil
		}
	}
	return nil, nil
}

func (r memoryComments) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []domain.Comment{}
	for _, c := range r.s.comments {
		if c.TicketID == ticketID {
			result = append(result, *c)
		}
	}
	return result, nil
}

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.findUserByEmail(user.Email) != nil {
		return ErrDuplicateEmail
	}
	now := r.s.now().UTC()
	user.ID = domain.NewID()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	r.s.users = append(r.s.users, &stored)
	return nil
}

func (r memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.ID == id {
			user := *u
			return &user, nil
		}
	}
	return nil, nil
}

func (r memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u := r.s.findUserByEmail(email); u != nil {
		user := *u
		return &user, nil
	}
	return nil, nil
}

func (r memoryUsers) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		result = append(result, *u)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		return result[i].FirstName < result[j].FirstName
	})
	return result, nil
}

func (r memoryUsers) Update(_ context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ID != id {
			continue
		}
		if patch.Email != nil {
			if other := r.s.findUserByEmail(*patch.Email); other != nil && other.ID != id {
				return nil, ErrDuplicateEmail
			}
		}
		patch.Apply(u)
		u.UpdatedAt = r.s.tick(u.UpdatedAt)
		user := *u
		return &user, nil
	}
	return nil, nil
}

func (s *MemoryStore) findUserByEmail(email string) *domain.User {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}
