package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/residence-ops/residence-tickets/internal/api/http"
	"github.com/residence-ops/residence-tickets/internal/api/http/handlers"
	"github.com/residence-ops/residence-tickets/internal/auth"
	"github.com/residence-ops/residence-tickets/internal/config"
	"github.com/residence-ops/residence-tickets/internal/events"
	"github.com/residence-ops/residence-tickets/internal/notification"
	"github.com/residence-ops/residence-tickets/internal/observability"
	"github.com/residence-ops/residence-tickets/internal/persistence"
	"github.com/residence-ops/residence-tickets/internal/repository"
	"github.com/residence-ops/residence-tickets/internal/worker"
)

const (
	mailQueueSize    = 128
	mailSendTimeout  = 30 * time.Second
	readinessTimeout = 2 * time.Second
)

// Application owns the process-scoped resources and the service graph.
type Application struct {
	Config   *config.Config
	Logger   *zap.Logger
	Services *Services
	Metrics  *observability.Metrics

	postgres  *persistence.Postgres
	redis     *persistence.Redis
	mailQueue *worker.MailQueue
	health    map[string]handlers.Pinger
}

// Build assembles the application from cfg. Postgres is used when a DSN is
// configured and the in-memory store otherwise; sessions live in Redis when
// an address is configured and reachable.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Application, error) {
	a := &Application{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
		health:  map[string]handlers.Pinger{},
	}

	var (
		tickets  repository.TicketRepository
		comments repository.CommentRepository
		users    repository.UserRepository
	)
	if cfg.Postgres.DSN != "" {
		a.postgres = persistence.NewPostgres(cfg.Postgres, logger)
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, a.postgres, cfg.Postgres.MigrationsDir, logger); err != nil {
				a.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		tickets = repository.NewTicketRepository(a.postgres)
		comments = repository.NewCommentRepository(a.postgres)
		users = repository.NewUserRepository(a.postgres)
		a.health["postgres"] = a.postgres
	} else {
		logger.Warn("POSTGRES_DSN not set, using in-memory storage")
		store := repository.NewMemoryStore(nil)
		tickets, comments, users = store.Tickets(), store.Comments(), store.Users()
	}
	users = repository.NewCachedUserRepository(users, cfg.Cache.UserCacheSize, cfg.Cache.UserCacheTTL())

	var sessions auth.SessionStore
	switch rdb, err := connectRedis(ctx, cfg.Redis); {
	case cfg.Redis.Addr == "":
		logger.Warn("REDIS_ADDR not set, sessions are kept in memory")
		sessions = auth.NewMemorySessionStore(nil)
	case err != nil:
		logger.Warn("redis unreachable, sessions are kept in memory", zap.Error(err))
		sessions = auth.NewMemorySessionStore(nil)
	default:
		logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
		a.redis = rdb
		sessions = auth.NewRedisSessionStore(rdb.Client, cfg.Auth.SessionPrefix)
		a.health["redis"] = rdb
	}

	a.mailQueue = worker.NewMailQueue(notification.New(cfg.Notification, logger), mailQueueSize, mailSendTimeout, logger)

	dispatcher := events.NewInMemoryDispatcher(logger)
	a.Metrics.Observe(dispatcher)

	a.Services = NewServices(Dependencies{
		Tickets:    tickets,
		Comments:   comments,
		Users:      users,
		Sessions:   sessions,
		Mailer:     a.mailQueue,
		Dispatcher: dispatcher,
		Auth:       cfg.Auth,
		Logger:     logger,
	})
	return a, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*persistence.Redis, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	return persistence.NewRedis(ctx, cfg)
}

// StartWorkers runs background workers until ctx is cancelled.
func (a *Application) StartWorkers(ctx context.Context) <-chan struct{} {
	return worker.StartNotificationWorker(ctx, a.mailQueue)
}

// HTTP returns the fiber app serving the API.
func (a *Application) HTTP() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      a.Config.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, a.Logger, a.Metrics, a.Config.App.RequestTimeout())

	s := a.Services
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(a.Config.App.Name, a.Config.App.Version, a.health),
		Auth:           handlers.NewAuthHandler(s.Auth),
		Tickets:        handlers.NewTicketsHandler(s.Tickets),
		Comments:       handlers.NewCommentsHandler(s.Comments, s.Tickets),
		Users:          handlers.NewUsersHandler(s.Users),
		AuthMiddleware: auth.NewAuthMiddleware(s.Auth),
		Gate:           s.Gate,
		Metrics:        a.Metrics,
	})
	return app
}

// Ready pings every configured dependency.
func (a *Application) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()
	for name, dep := range a.health {
		if err := dep.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Close releases connections.
func (a *Application) Close() {
	a.redis.Close()
	a.postgres.Close()
}
