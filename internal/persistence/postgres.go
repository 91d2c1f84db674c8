package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/residence-ops/residence-tickets/internal/config"
)

// ErrPostgresNotConfigured is returned when no DSN was provided.
var ErrPostgresNotConfigured = errors.New("postgres not configured")

// Postgres is the process-wide database handle. The pool is opened lazily on
// first use and shared by every repository.
type Postgres struct {
	pool *Lazy[*pgxpool.Pool]
}

// NewPostgres prepares a handle; no connection is made until Pool is called.
func NewPostgres(cfg config.PostgresConfig, logger *zap.Logger) *Postgres {
	return &Postgres{pool: NewLazy(func(ctx context.Context) (*pgxpool.Pool, error) {
		return connect(ctx, cfg, logger)
	})}
}

func connect(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, ErrPostgresNotConfigured
	}

	if timeout := cfg.ConnectTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Warn("postgres ping failed", zap.Error(err))
		return nil, err
	}

	logger.Info("connected to postgres")
	return pool, nil
}

// Pool returns the shared pool, connecting on first use.
func (p *Postgres) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	return p.pool.Get(ctx)
}

// Ping verifies database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	if p == nil {
		return ErrPostgresNotConfigured
	}
	pool, err := p.Pool(ctx)
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p == nil {
		return
	}
	if pool, ok := p.pool.Reset(); ok && pool != nil {
		pool.Close()
	}
}
