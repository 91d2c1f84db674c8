package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/residence-ops/residence-tickets/internal/domain"
)

// adapters is one backend's set of repositories. Every backend must pass
// the same contract.
type adapters struct {
	tickets  TicketRepository
	comments CommentRepository
	users    UserRepository
}

func runRepositoryContract(t *testing.T, open func(t *testing.T) adapters) {
	t.Run("Tickets", func(t *testing.T) { ticketContract(t, open) })
	t.Run("Comments", func(t *testing.T) { commentContract(t, open) })
	t.Run("Users", func(t *testing.T) { userContract(t, open) })
}

func newTicket(t *testing.T, repo TicketRepository, title string, assignee *string) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{Title: title, Description: "d", Status: domain.TicketStatusNew, AssignedTo: assignee}
	require.NoError(t, repo.Create(context.Background(), ticket))
	return ticket
}

func newUser(t *testing.T, repo UserRepository, first, last, email string) *domain.User {
	t.Helper()
	user := &domain.User{FirstName: first, LastName: last, Email: email, PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func ticketContract(t *testing.T, open func(t *testing.T) adapters) {
	ctx := context.Background()

	t.Run("CreateAssignsIdentityAndTimestamps", func(t *testing.T) {
		a := open(t)
		ticket := newTicket(t, a.tickets, "t", nil)

		_, err := domain.ValidateID("ticket", ticket.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), ticket.Version)
		assert.True(t, ticket.CreatedAt.Equal(ticket.UpdatedAt))

		stored, err := a.tickets.GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, domain.TicketStatusNew, stored.Status)
		assert.Nil(t, stored.AssignedTo)
	})

	t.Run("GetByIDAbsentIsNil", func(t *testing.T) {
		a := open(t)
		ticket, err := a.tickets.GetByID(ctx, domain.NewID())
		require.NoError(t, err)
		assert.Nil(t, ticket)
	})

	t.Run("ListMostRecentFirst", func(t *testing.T) {
		a := open(t)
		var ids []string
		for _, title := range []string{"first", "second", "third"} {
			ids = append(ids, newTicket(t, a.tickets, title, nil).ID)
		}

		tickets, err := a.tickets.List(ctx)
		require.NoError(t, err)
		require.Len(t, tickets, 3)
		assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{tickets[0].ID, tickets[1].ID, tickets[2].ID})
	})

	t.Run("UpdateMergesAndBumps", func(t *testing.T) {
		a := open(t)
		assignee := newUser(t, a.users, "Paul", "Durand", "paul@example.com").ID
		ticket := newTicket(t, a.tickets, "t", &assignee)

		status := domain.TicketStatusClosed
		updated, err := a.tickets.Update(ctx, ticket.ID, domain.TicketPatch{Status: &status})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, domain.TicketStatusClosed, updated.Status)
		assert.Equal(t, "t", updated.Title)
		assert.Equal(t, "d", updated.Description)
		require.NotNil(t, updated.AssignedTo)
		assert.Equal(t, assignee, *updated.AssignedTo)
		assert.Equal(t, int64(2), updated.Version)
		assert.True(t, updated.UpdatedAt.After(ticket.UpdatedAt))
		assert.True(t, updated.CreatedAt.Equal(ticket.CreatedAt))

		again, err := a.tickets.Update(ctx, ticket.ID, domain.TicketPatch{Status: &status})
		require.NoError(t, err)
		assert.True(t, again.UpdatedAt.After(updated.UpdatedAt))
	})

	t.Run("UpdateAssigneeAbsentNullAndValue", func(t *testing.T) {
		a := open(t)
		first := newUser(t, a.users, "Paul", "Durand", "paul@example.com").ID
		second := newUser(t, a.users, "Lina", "Petit", "lina@example.com").ID
		ticket := newTicket(t, a.tickets, "t", &first)

		title := "renamed"
		kept, err := a.tickets.Update(ctx, ticket.ID, domain.TicketPatch{Title: &title})
		require.NoError(t, err)
		require.NotNil(t, kept.AssignedTo)
		assert.Equal(t, first, *kept.AssignedTo)
		assert.Equal(t, "renamed", kept.Title)

		moved, err := a.tickets.Update(ctx, ticket.ID, domain.TicketPatch{AssignedTo: domain.Nullable[string]{Set: true, Value: &second}})
		require.NoError(t, err)
		require.NotNil(t, moved.AssignedTo)
		assert.Equal(t, second, *moved.AssignedTo)

		cleared, err := a.tickets.Update(ctx, ticket.ID, domain.TicketPatch{AssignedTo: domain.Nullable[string]{Set: true}})
		require.NoError(t, err)
		assert.Nil(t, cleared.AssignedTo)
		assert.Equal(t, "renamed", cleared.Title)
	})

	t.Run("UpdateAbsentIsNil", func(t *testing.T) {
		a := open(t)
		updated, err := a.tickets.Update(ctx, domain.NewID(), domain.TicketPatch{})
		require.NoError(t, err)
		assert.Nil(t, updated)

		version := int64(1)
		updated, err = a.tickets.Update(ctx, domain.NewID(), domain.TicketPatch{ExpectedVersion: &version})
		require.NoError(t, err)
		assert.Nil(t, updated)
	})

	t.Run("UpdateVersionConflict", func(t *testing.T) {
		a := open(t)
		ticket := newTicket(t, a.tickets, "t", nil)

		stale := int64(7)
		status := domain.TicketStatusResolved
		_, err := a.tickets.Update(ctx, ticket.ID, domain.TicketPatch{Status: &status, ExpectedVersion: &stale})
		assert.ErrorIs(t, err, ErrVersionConflict)

		unchanged, err := a.tickets.GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusNew, unchanged.Status)
		assert.Equal(t, int64(1), unchanged.Version)

		current := int64(1)
		updated, err := a.tickets.Update(ctx, ticket.ID, domain.TicketPatch{Status: &status, ExpectedVersion: &current})
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated.Version)
		assert.Equal(t, domain.TicketStatusResolved, updated.Status)
	})
}

func commentContract(t *testing.T, open func(t *testing.T) adapters) {
	ctx := context.Background()
	a := open(t)
	author := newUser(t, a.users, "Camille", "Martin", "camille@example.com")
	ticket := newTicket(t, a.tickets, "t", nil)
	other := newTicket(t, a.tickets, "o", nil)

	for _, content := range []string{"one", "two", "three"} {
		comment := &domain.Comment{TicketID: ticket.ID, AuthorID: author.ID, Content: content}
		require.NoError(t, a.comments.Create(ctx, comment))
		assert.NotEmpty(t, comment.ID)
		assert.False(t, comment.CreatedAt.IsZero())
	}
	require.NoError(t, a.comments.Create(ctx, &domain.Comment{TicketID: other.ID, AuthorID: author.ID, Content: "elsewhere"}))

	thread, err := a.comments.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{thread[0].Content, thread[1].Content, thread[2].Content})
	assert.Equal(t, author.ID, thread[0].AuthorID)
	assert.Equal(t, ticket.ID, thread[0].TicketID)

	found, err := a.comments.GetByID(ctx, thread[1].ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "two", found.Content)

	missing, err := a.comments.GetByID(ctx, domain.NewID())
	require.NoError(t, err)
	assert.Nil(t, missing)

	empty, err := a.comments.ListByTicket(ctx, domain.NewID())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func userContract(t *testing.T, open func(t *testing.T) adapters) {
	ctx := context.Background()
	a := open(t)

	adam := newUser(t, a.users, "Adam", "Roux", "adam@example.com")
	zoe := newUser(t, a.users, "Zoé", "Bernard", "zoe@example.com")
	assert.False(t, zoe.CreatedAt.IsZero())

	err := a.users.Create(ctx, &domain.User{FirstName: "Z", LastName: "B", Email: "ZOE@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	users, err := a.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, []string{"Bernard", "Roux"}, []string{users[0].LastName, users[1].LastName})

	byEmail, err := a.users.GetByEmail(ctx, "Adam@Example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, adam.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	nobody, err := a.users.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, nobody)

	name := "Adèle"
	updated, err := a.users.Update(ctx, adam.ID, domain.UserPatch{FirstName: &name})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Adèle", updated.FirstName)
	assert.Equal(t, "Roux", updated.LastName)
	assert.False(t, updated.UpdatedAt.Before(adam.UpdatedAt))

	taken := "zoe@example.com"
	_, err = a.users.Update(ctx, adam.ID, domain.UserPatch{Email: &taken})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	missing, err := a.users.Update(ctx, domain.NewID(), domain.UserPatch{FirstName: &name})
	require.NoError(t, err)
	assert.Nil(t, missing)
}
