package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/residence-ops/residence-tickets/internal/auth"
	"github.com/residence-ops/residence-tickets/internal/config"
	"github.com/residence-ops/residence-tickets/internal/domain"
	"github.com/residence-ops/residence-tickets/internal/repository"
	apperrors "github.com/residence-ops/residence-tickets/pkg/util"
)

// AuthService coordinates login, session lookup and logout. Tokens are JWTs
// whose id references a server-side session, so revoking the session
// invalidates the token before it expires.
type AuthService struct {
	users      repository.UserRepository
	sessions   auth.SessionStore
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Sessions auth.SessionStore
	Logger   *zap.Logger
	Now      func() time.Time
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// RegisterUserInput describes a new account.
type RegisterUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   deps.Sessions,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL()),
		bcryptCost: cfg.BcryptCost,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrNow(deps.Now),
	}
}

// Login checks credentials and opens a session. Unknown emails and wrong
// passwords fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	var violations []apperrors.FieldViolation
	if email == "" {
		violations = append(violations, apperrors.FieldViolation{Field: "email", Reason: "is required"})
	}
	if password == "" {
		violations = append(violations, apperrors.FieldViolation{Field: "password", Reason: "is required"})
	}
	if len(violations) > 0 {
		return nil, apperrors.NewFieldValidationError(violations)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewPersistenceError(s.logger, "user.get_by_email", err)
	}
	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}
	if err := auth.ComparePassword(hash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	now := s.now()
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokenMgr.TTL()),
	}
	token, expiresAt, err := s.tokenMgr.GenerateToken(user.ID, session.ID, now)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, apperrors.NewPersistenceError(s.logger, "session.save", err)
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves a bearer token into the caller identity. It
// satisfies auth.Authenticator.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Identity, error) {
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}
	session, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.NewPersistenceError(s.logger, "session.get", err)
	}
	if session == nil || session.UserID != claims.Subject {
		return nil, apperrors.NewUnauthorized("session expired")
	}
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, apperrors.NewPersistenceError(s.logger, "user.get", err)
	}
	if user == nil {
		return nil, apperrors.NewUnauthorized("session expired")
	}
	return &auth.Identity{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.FullName(),
		SessionID: session.ID,
	}, nil
}

// Logout revokes the session behind token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return apperrors.NewPersistenceError(s.logger, "session.delete", err)
	}
	return nil
}

// RegisterUser creates an account. It is used by the seed command; there is
// no public sign-up route.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error) {
	user := &domain.User{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     normalizeEmail(input.Email),
	}
	var violations []apperrors.FieldViolation
	if user.FirstName == "" {
		violations = append(violations, apperrors.FieldViolation{Field: "firstName", Reason: "must not be blank"})
	}
	if user.LastName == "" {
		violations = append(violations, apperrors.FieldViolation{Field: "lastName", Reason: "must not be blank"})
	}
	if !strings.Contains(user.Email, "@") {
		violations = append(violations, apperrors.FieldViolation{Field: "email", Reason: "must be an email address"})
	}
	if len(input.Password) < 8 {
		violations = append(violations, apperrors.FieldViolation{Field: "password", Reason: "must be at least 8 characters"})
	}
	if len(violations) > 0 {
		return nil, apperrors.NewFieldValidationError(violations)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, apperrors.NewPersistenceError(s.logger, "user.create", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
