package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/residence-ops/residence-tickets/pkg/util"
)

func TestCreateComment(t *testing.T) {
	t.Run("MissingTicketPersistsNothing", func(t *testing.T) {
		f := newFixture(t)
		ticketID := uuid.NewString()

		_, err := f.comments.CreateComment(f.ctx, ticketID, f.resident.ID, map[string]any{"content": "Bonjour"})
		require.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

		thread, err := f.store.Comments().ListByTicket(context.Background(), ticketID)
		require.NoError(t, err)
		assert.Empty(t, thread)
		assert.Empty(t, f.published)
	})

	t.Run("MalformedTicketID", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.comments.CreateComment(f.ctx, "abc", f.resident.ID, map[string]any{"content": "Bonjour"})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidID))
	})

	t.Run("DefaultsAuthorToCaller", func(t *testing.T) {
		f := newFixture(t)
		ticket := f.createTicket(t, "Interphone", "Ne sonne plus")
		comment, err := f.comments.CreateComment(f.ctx, ticket.ID, "", map[string]any{"content": "  Vu ce matin  "})
		require.NoError(t, err)
		assert.Equal(t, f.resident.ID, comment.AuthorID)
		assert.Equal(t, "Vu ce matin", comment.Content)
	})

	t.Run("BlankContent", func(t *testing.T) {
		f := newFixture(t)
		ticket := f.createTicket(t, "Interphone", "Ne sonne plus")
		_, err := f.comments.CreateComment(f.ctx, ticket.ID, f.resident.ID, map[string]any{"content": " \n "})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})

	t.Run("RequiresSession", func(t *testing.T) {
		f := newFixture(t)
		ticket := f.createTicket(t, "Interphone", "Ne sonne plus")
		_, err := f.comments.CreateComment(context.Background(), ticket.ID, f.resident.ID, map[string]any{"content": "x"})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	})
}

func TestGetCommentsForTicketIsChronological(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, "Chauffage", "Radiateur froid")
	for _, content := range []string{"premier", "deuxième", "troisième"} {
		_, err := f.comments.CreateComment(f.ctx, ticket.ID, f.resident.ID, map[string]any{"content": content})
		require.NoError(t, err)
	}

	thread, err := f.comments.GetCommentsForTicket(f.ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, "premier", thread[0].Content)
	assert.Equal(t, "deuxième", thread[1].Content)
	assert.Equal(t, "troisième", thread[2].Content)
}
