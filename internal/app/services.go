// Package app assembles the service graph. Every collaborator is built once
// at startup and passed in explicitly; there is no global registry.
package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/residence-ops/residence-tickets/internal/auth"
	"github.com/residence-ops/residence-tickets/internal/config"
	"github.com/residence-ops/residence-tickets/internal/events"
	"github.com/residence-ops/residence-tickets/internal/notification"
	"github.com/residence-ops/residence-tickets/internal/repository"
	"github.com/residence-ops/residence-tickets/internal/service"
)

// Dependencies are the storage and infrastructure handles services need.
type Dependencies struct {
	Tickets    repository.TicketRepository
	Comments   repository.CommentRepository
	Users      repository.UserRepository
	Sessions   auth.SessionStore
	Mailer     notification.Mailer
	Gate       *auth.Gate
	Dispatcher events.Dispatcher
	Auth       config.AuthConfig
	Logger     *zap.Logger
	Now        func() time.Time
}

// Services is the constructed service graph.
type Services struct {
	Tickets       *service.TicketService
	Comments      *service.CommentService
	Users         *service.UserService
	Auth          *service.AuthService
	Notifications *service.NotificationService
	Gate          *auth.Gate
	Dispatcher    events.Dispatcher
}

// NewServices constructs each service once and subscribes the notification
// handlers. A nil gate allows any authenticated caller; a nil dispatcher is
// replaced by an in-memory one.
func NewServices(deps Dependencies) *Services {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gate := deps.Gate
	if gate == nil {
		gate = auth.NewGate(nil)
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher(logger)
	}
	mailer := deps.Mailer
	if mailer == nil {
		mailer = notification.NewLogMailer(logger)
	}

	s := &Services{
		Gate:       gate,
		Dispatcher: dispatcher,
		Tickets: service.NewTicketService(service.TicketDependencies{
			TicketRepo: deps.Tickets,
			UserRepo:   deps.Users,
			Gate:       gate,
			Dispatcher: dispatcher,
			Logger:     logger,
			Now:        deps.Now,
		}),
		Comments: service.NewCommentService(service.CommentDependencies{
			CommentRepo: deps.Comments,
			TicketRepo:  deps.Tickets,
			Gate:        gate,
			Dispatcher:  dispatcher,
			Logger:      logger,
			Now:         deps.Now,
		}),
		Users: service.NewUserService(deps.Users, gate, logger),
		Auth: service.NewAuthService(deps.Auth, service.AuthDependencies{
			UserRepo: deps.Users,
			Sessions: deps.Sessions,
			Logger:   logger,
			Now:      deps.Now,
		}),
		Notifications: service.NewNotificationService(deps.Tickets, deps.Users, mailer, logger.Named("notifications")),
	}
	s.Notifications.RegisterHandlers(dispatcher)
	return s
}
