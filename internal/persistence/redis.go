package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/residence-ops/residence-tickets/internal/config"
)

// Redis holds the client backing the session store.
type Redis struct {
	Client *redis.Client
}

// NewRedis opens a client and verifies it answers within the dial timeout.
// On failure the client is closed and the error returned, so the caller can
// choose another session store.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout(),
		MaxRetries:  1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout())
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return &Redis{Client: client}, nil
}

// Close releases the client. Safe on a nil handle.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping reports whether Redis is reachable; used by the readiness probe.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
