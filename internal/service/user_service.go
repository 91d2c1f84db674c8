package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/residence-ops/residence-tickets/internal/auth"
	"github.com/residence-ops/residence-tickets/internal/domain"
	"github.com/residence-ops/residence-tickets/internal/repository"
	apperrors "github.com/residence-ops/residence-tickets/pkg/util"
)

// UserService provides read-only user lookups for assignee pickers and
// comment author display.
type UserService struct {
	users  repository.UserRepository
	gate   *auth.Gate
	logger *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, gate *auth.Gate, logger *zap.Logger) *UserService {
	return &UserService{users: users, gate: gate, logger: loggerOrNop(logger)}
}

// GetUsers lists every user.
func (s *UserService) GetUsers(ctx context.Context) ([]domain.User, error) {
	if _, err := s.gate.Check(ctx, auth.OpUserRead); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError(s.logger, "user.list", err)
	}
	return users, nil
}

// GetUserByID returns (nil, nil) when the user does not exist.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := s.gate.Check(ctx, auth.OpUserRead); err != nil {
		return nil, err
	}
	id, err := domain.ValidateID("user", id)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewPersistenceError(s.logger, "user.get", err)
	}
	return user, nil
}
