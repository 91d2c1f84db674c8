package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/residence-ops/residence-tickets/internal/auth"
	"github.com/residence-ops/residence-tickets/internal/domain"
	"github.com/residence-ops/residence-tickets/internal/events"
	"github.com/residence-ops/residence-tickets/internal/notification"
	"github.com/residence-ops/residence-tickets/internal/repository"
)

var errStorageDown = errors.New("storage down")

// steppingClock advances one second per reading so timestamps are distinct.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

type fixture struct {
	store      *repository.MemoryStore
	dispatcher events.Dispatcher
	tickets    *TicketService
	comments   *CommentService
	users      *UserService
	resident   *domain.User
	ctx        context.Context
	published  []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      repository.NewMemoryStore(steppingClock()),
		dispatcher: events.NewInMemoryDispatcher(zap.NewNop()),
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketAssigned,
		events.EventTicketCommentAdded,
	} {
		f.dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			f.published = append(f.published, e)
			return nil
		})
	}

	gate := auth.NewGate(nil)
	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo: f.store.Tickets(),
		UserRepo:   f.store.Users(),
		Gate:       gate,
		Dispatcher: f.dispatcher,
	})
	f.comments = NewCommentService(CommentDependencies{
		CommentRepo: f.store.Comments(),
		TicketRepo:  f.store.Tickets(),
		Gate:        gate,
		Dispatcher:  f.dispatcher,
	})
	f.users = NewUserService(f.store.Users(), gate, nil)

	f.resident = f.addUser(t, "Camille", "Martin", "camille@residence.test")
	f.ctx = auth.WithIdentity(context.Background(), &auth.Identity{
		UserID: f.resident.ID,
		Email:  f.resident.Email,
		Name:   f.resident.FullName(),
	})
	return f
}

func (f *fixture) addUser(t *testing.T, first, last, email string) *domain.User {
	t.Helper()
	user := &domain.User{FirstName: first, LastName: last, Email: email}
	require.NoError(t, f.store.Users().Create(context.Background(), user))
	return user
}

func (f *fixture) createTicket(t *testing.T, title, description string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(f.ctx, map[string]any{"title": title, "description": description})
	require.NoError(t, err)
	return ticket
}

func (f *fixture) eventTypes() []events.EventType {
	types := make([]events.EventType, 0, len(f.published))
	for _, e := range f.published {
		types = append(types, e.Type)
	}
	return types
}

type failingTickets struct {
	repository.TicketRepository
}

func (failingTickets) Create(context.Context, *domain.Ticket) error { return errStorageDown }

func (failingTickets) GetByID(context.Context, string) (*domain.Ticket, error) {
	return nil, errStorageDown
}

func (failingTickets) List(context.Context) ([]domain.Ticket, error) { return nil, errStorageDown }

type recordingMailer struct {
	sent []notification.Message
}

func (m *recordingMailer) Send(_ context.Context, msg notification.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}
