package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/residence-ops/residence-tickets/internal/domain"
)

// cachedUserRepository is a read-through cache over another UserRepository.
// Users are looked up on every comment and assignment, and rarely change.
type cachedUserRepository struct {
	backend UserRepository
	byID    *expirable.LRU[string, domain.User]

	mu     sync.Mutex
	writes map[string]uint64
}

// NewCachedUserRepository wraps backend with an expiring LRU keyed by id.
// A non-positive size disables caching.
func NewCachedUserRepository(backend UserRepository, size int, ttl time.Duration) UserRepository {
	if size <= 0 {
		return backend
	}
	return &cachedUserRepository{
		backend: backend,
		byID:    expirable.NewLRU[string, domain.User](size, nil, ttl),
		writes:  map[string]uint64{},
	}
}

func (r *cachedUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.backend.Create(ctx, user); err != nil {
		return err
	}
	r.byID.Add(user.ID, *user)
	return nil
}

func (r *cachedUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if user, ok := r.byID.Get(id); ok {
		return &user, nil
	}
	before := r.generation(id)
	user, err := r.backend.GetByID(ctx, id)
	if err != nil || user == nil {
		return user, err
	}
	r.mu.Lock()
	if r.writes[id] == before {
		r.byID.Add(user.ID, *user)
	}
	r.mu.Unlock()
	return user, nil
}

func (r *cachedUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range r.byID.Values() {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return r.backend.GetByEmail(ctx, email)
}

func (r *cachedUserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.backend.List(ctx)
}

// Update evicts the entry on both sides of the write. A read that started
// before the write finished never repopulates the cache.
func (r *cachedUserRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	r.invalidate(id)
	user, err := r.backend.Update(ctx, id, patch)
	r.invalidate(id)
	return user, err
}

func (r *cachedUserRepository) generation(id string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes[id]
}

func (r *cachedUserRepository) invalidate(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes[id]++
	r.byID.Remove(id)
}
