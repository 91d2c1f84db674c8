package domain

import (
	"github.com/google/uuid"

	apperrors "github.com/residence-ops/residence-tickets/pkg/util"
)

// ValidateID checks that id is addressable by the backing store (a UUID) and
// returns its canonical lowercase form, which every adapter matches on.
// A malformed id is an INVALID_ID client error, distinct from not found.
func ValidateID(resource, id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil || len(id) != 36 {
		return "", apperrors.NewInvalidID(resource, id)
	}
	return parsed.String(), nil
}

// NewID generates a store-compatible identifier.
func NewID() string {
	return uuid.NewString()
}
