package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/residence-ops/residence-tickets/internal/auth"
	"github.com/residence-ops/residence-tickets/internal/domain"
	"github.com/residence-ops/residence-tickets/internal/events"
	"github.com/residence-ops/residence-tickets/internal/repository"
	"github.com/residence-ops/residence-tickets/internal/validation"
	apperrors "github.com/residence-ops/residence-tickets/pkg/util"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
	gate    *auth.Gate
	events  publisher
	logger  *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Gate       *auth.Gate
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets: deps.TicketRepo,
		users:   deps.UserRepo,
		gate:    deps.Gate,
		events:  publisher{dispatcher: deps.Dispatcher, now: clockOrNow(deps.Now)},
		logger:  loggerOrNop(deps.Logger),
	}
}

// CreateTicket validates payload and persists a NEW ticket.
func (s *TicketService) CreateTicket(ctx context.Context, payload any) (*domain.Ticket, error) {
	caller, err := s.gate.Check(ctx, auth.OpTicketCreate)
	if err != nil {
		return nil, err
	}
	input, err := validation.CreateTicket(payload)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.TicketStatusNew,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewPersistenceError(s.logger, "ticket.create", err)
	}

	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  caller.UserID,
		Payload:  events.TicketCreatedPayload{Title: ticket.Title},
	})
	return ticket, nil
}

// UpdateTicket merges the fields present in payload over the stored ticket.
// Any status may be set from any other; the validator is the only gate on
// status values. An explicit null assignedTo clears the assignee.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, payload any) (*domain.Ticket, error) {
	caller, err := s.gate.Check(ctx, auth.OpTicketUpdate)
	if err != nil {
		return nil, err
	}
	id, err = domain.ValidateID("ticket", id)
	if err != nil {
		return nil, err
	}
	input, err := validation.UpdateTicket(payload)
	if err != nil {
		return nil, err
	}

	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewPersistenceError(s.logger, "ticket.get", err)
	}
	if current == nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	if err := verifyAssignee(ctx, s.users, input.AssignedTo); err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return nil, err
		}
		return nil, apperrors.NewPersistenceError(s.logger, "user.get", err)
	}

	patch := input.Patch()
	if patch.Empty() {
		if patch.ExpectedVersion != nil && *patch.ExpectedVersion != current.Version {
			return nil, versionConflict(id)
		}
		return current, nil
	}

	updated, err := s.tickets.Update(ctx, id, patch)
	if errors.Is(err, repository.ErrVersionConflict) {
		return nil, versionConflict(id)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError(s.logger, "ticket.update", err)
	}
	if updated == nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}

	if updated.Status != current.Status {
		s.events.publish(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: updated.ID,
			ActorID:  caller.UserID,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: current.Status,
				NewStatus: updated.Status,
			},
		})
	}
	if !sameAssignee(current.AssignedTo, updated.AssignedTo) {
		s.events.publish(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: updated.ID,
			ActorID:  caller.UserID,
			Payload: events.TicketAssignedPayload{
				PreviousAssignee: current.AssignedTo,
				Assignee:         updated.AssignedTo,
			},
		})
	}
	return updated, nil
}

// GetTicketByID returns (nil, nil) when no ticket has the given id.
func (s *TicketService) GetTicketByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if _, err := s.gate.Check(ctx, auth.OpTicketRead); err != nil {
		return nil, err
	}
	id, err := domain.ValidateID("ticket", id)
	if err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewPersistenceError(s.logger, "ticket.get", err)
	}
	return ticket, nil
}

// GetAllTickets returns every ticket, most recently created first, whatever
// its status.
func (s *TicketService) GetAllTickets(ctx context.Context) ([]domain.Ticket, error) {
	if _, err := s.gate.Check(ctx, auth.OpTicketRead); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError(s.logger, "ticket.list", err)
	}
	return tickets, nil
}

// PartitionTickets splits tickets into the active and archived (CLOSED)
// lists, preserving order within each.
func (s *TicketService) PartitionTickets(tickets []domain.Ticket) (active, archived []domain.Ticket) {
	active = make([]domain.Ticket, 0, len(tickets))
	archived = make([]domain.Ticket, 0)
	for _, ticket := range tickets {
		if ticket.Status.Archived() {
			archived = append(archived, ticket)
			continue
		}
		active = append(active, ticket)
	}
	return active, archived
}

func versionConflict(id string) error {
	return apperrors.NewConflict("ticket was modified by someone else", map[string]any{"id": id})
}
