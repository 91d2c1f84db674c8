package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/residence-ops/residence-tickets/internal/auth"
	"github.com/residence-ops/residence-tickets/internal/domain"
	"github.com/residence-ops/residence-tickets/internal/events"
	"github.com/residence-ops/residence-tickets/internal/repository"
	"github.com/residence-ops/residence-tickets/internal/validation"
	apperrors "github.com/residence-ops/residence-tickets/pkg/util"
)

// CommentService manages ticket threads. Comments are immutable once written.
type CommentService struct {
	comments repository.CommentRepository
	tickets  repository.TicketRepository
	gate     *auth.Gate
	events   publisher
	logger   *zap.Logger
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	CommentRepo repository.CommentRepository
	TicketRepo  repository.TicketRepository
	Gate        *auth.Gate
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Now         func() time.Time
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		comments: deps.CommentRepo,
		tickets:  deps.TicketRepo,
		gate:     deps.Gate,
		events:   publisher{dispatcher: deps.Dispatcher, now: clockOrNow(deps.Now)},
		logger:   loggerOrNop(deps.Logger),
	}
}

// CreateComment appends a comment to an existing ticket. An empty authorID
// means the caller. Nothing is persisted when the ticket does not exist.
func (s *CommentService) CreateComment(ctx context.Context, ticketID, authorID string, payload any) (*domain.Comment, error) {
	caller, err := s.gate.Check(ctx, auth.OpCommentCreate)
	if err != nil {
		return nil, err
	}
	ticketID, err = domain.ValidateID("ticket", ticketID)
	if err != nil {
		return nil, err
	}
	if authorID == "" {
		authorID = caller.UserID
	}
	authorID, err = domain.ValidateID("user", authorID)
	if err != nil {
		return nil, err
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewPersistenceError(s.logger, "ticket.get", err)
	}
	if ticket == nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
	}

	input, err := validation.CreateComment(payload)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		Content:  input.Content,
		AuthorID: authorID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.NewPersistenceError(s.logger, "comment.create", err)
	}

	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		ActorID:  caller.UserID,
		Payload: events.TicketCommentAddedPayload{
			CommentID: comment.ID,
			AuthorID:  comment.AuthorID,
			Preview:   stringPreview(comment.Content, 120),
		},
	})
	return comment, nil
}

// GetCommentsForTicket returns the thread oldest first.
func (s *CommentService) GetCommentsForTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	if _, err := s.gate.Check(ctx, auth.OpCommentRead); err != nil {
		return nil, err
	}
	ticketID, err := domain.ValidateID("ticket", ticketID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewPersistenceError(s.logger, "comment.list", err)
	}
	return comments, nil
}
