package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/residence-ops/residence-tickets/internal/domain"
)

// SessionStore keeps server-side login sessions.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	// Get returns (nil, nil) when the session is unknown, revoked or expired.
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

type redisSessionStore struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionStore stores sessions as JSON values expiring with the session.
func NewRedisSessionStore(client *redis.Client, prefix string) SessionStore {
	return &redisSessionStore{client: client, prefix: prefix}
}

func (s *redisSessionStore) Save(ctx context.Context, session domain.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	return s.client.Set(ctx, s.prefix+session.ID, payload, ttl).Err()
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	payload, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.prefix+id).Err()
}

type memorySessionStore struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]domain.Session
}

// NewMemorySessionStore is used when Redis is not configured and in tests.
func NewMemorySessionStore(now func() time.Time) SessionStore {
	if now == nil {
		now = time.Now
	}
	return &memorySessionStore{now: now, sessions: make(map[string]domain.Session)}
}

func (s *memorySessionStore) Save(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	if !s.now().Before(session.ExpiresAt) {
		delete(s.sessions, id)
		return nil, nil
	}
	return &session, nil
}

func (s *memorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
