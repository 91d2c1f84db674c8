package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/residence-ops/residence-tickets/internal/events"
	"github.com/residence-ops/residence-tickets/internal/notification"
	"github.com/residence-ops/residence-tickets/internal/repository"
)

// NotificationService e-mails assignees about their tickets.
type NotificationService struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
	mailer  notification.Mailer
	logger  *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(tickets repository.TicketRepository, users repository.UserRepository, mailer notification.Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		tickets: tickets,
		users:   users,
		mailer:  mailer,
		logger:  loggerOrNop(logger),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	dispatcher.Subscribe(events.EventTicketCommentAdded, n.handleTicketCommentAdded)
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok || payload.Assignee == nil {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil || ticket == nil {
		return err
	}
	return n.notifyUser(ctx, *payload.Assignee,
		fmt.Sprintf("Ticket assigned: %s", ticket.Title),
		fmt.Sprintf("You have been assigned the ticket %q.\n\n%s\n", ticket.Title, ticket.Description))
}

func (n *NotificationService) handleTicketCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCommentAddedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil || ticket == nil {
		return err
	}
	if ticket.AssignedTo == nil || *ticket.AssignedTo == payload.AuthorID {
		return nil
	}
	return n.notifyUser(ctx, *ticket.AssignedTo,
		fmt.Sprintf("New comment on: %s", ticket.Title),
		fmt.Sprintf("A comment was added to %q:\n\n%s\n", ticket.Title, payload.Preview))
}

func (n *NotificationService) notifyUser(ctx context.Context, userID, subject, body string) error {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.Email == "" {
		n.logger.Debug("notification skipped, no recipient", zap.String("user_id", userID))
		return nil
	}
	return n.mailer.Send(ctx, notification.Message{
		To:      []string{user.Email},
		Subject: subject,
		Body:    body,
	})
}
