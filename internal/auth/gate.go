package auth

import (
	"context"

	apperrors "github.com/residence-ops/residence-tickets/pkg/util"
)

// Operation names an action guarded by the Gate.
type Operation string

const (
	OpTicketCreate  Operation = "ticket:create"
	OpTicketUpdate  Operation = "ticket:update"
	OpTicketRead    Operation = "ticket:read"
	OpCommentCreate Operation = "comment:create"
	OpCommentRead   Operation = "comment:read"
	OpUserRead      Operation = "user:read"
)

// Policy decides whether id may perform op.
type Policy func(ctx context.Context, id *Identity, op Operation) (bool, error)

// AllowAuthenticated lets any authenticated identity perform any operation.
func AllowAuthenticated(_ context.Context, id *Identity, _ Operation) (bool, error) {
	return id != nil, nil
}

// Gate maps the session on a context to an allowed-operation check.
type Gate struct {
	policy Policy
}

// NewGate builds a gate. A nil policy means AllowAuthenticated.
func NewGate(policy Policy) *Gate {
	if policy == nil {
		policy = AllowAuthenticated
	}
	return &Gate{policy: policy}
}

// Check returns the caller identity when op is allowed. A missing session is
// UNAUTHORIZED; a session denied by the policy is FORBIDDEN.
func (g *Gate) Check(ctx context.Context, op Operation) (*Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	allowed, err := g.policy(ctx, id, op)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !allowed {
		return nil, apperrors.NewForbidden("operation not allowed: " + string(op))
	}
	return id, nil
}
