package service

import (
	"context"

	"github.com/residence-ops/residence-tickets/internal/domain"
	"github.com/residence-ops/residence-tickets/internal/repository"
	apperrors "github.com/residence-ops/residence-tickets/pkg/util"
)

// verifyAssignee checks that a newly requested assignee is an existing user.
// Clearing the assignee or leaving it untouched needs no lookup.
func verifyAssignee(ctx context.Context, users repository.UserRepository, assignee domain.Nullable[string]) error {
	if !assignee.Set || assignee.Value == nil {
		return nil
	}
	user, err := users.GetByID(ctx, *assignee.Value)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NewNotFound("user", map[string]any{"id": *assignee.Value})
	}
	return nil
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
