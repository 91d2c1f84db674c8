package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Field limits shared by validation and storage.
const (
	TitleMaxLength       = 200
	DescriptionMaxLength = 5000
)

// AllTicketStatuses lists every status in declaration order.
func AllTicketStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusNew,
		TicketStatusInProgress,
		TicketStatusResolved,
		TicketStatusClosed,
	}
}

// Valid reports whether s is one of the enumerated statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// ParseTicketStatus converts raw input into a TicketStatus.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	status := TicketStatus(raw)
	return status, status.Valid()
}

// Archived reports whether the ticket belongs to the archive list.
func (s TicketStatus) Archived() bool {
	return s == TicketStatusClosed
}

// Ticket is the aggregate for maintenance requests.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      TicketStatus
	AssignedTo  *string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Nullable distinguishes an omitted field from one explicitly set to null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// TicketPatch is a partial update; nil fields are left untouched.
type TicketPatch struct {
	Title           *string
	Description     *string
	Status          *TicketStatus
	AssignedTo      Nullable[string]
	ExpectedVersion *int64
}

// Apply merges the patch over t.
func (p TicketPatch) Apply(t *Ticket) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.AssignedTo.Set {
		if p.AssignedTo.Value == nil {
			t.AssignedTo = nil
		} else {
			assignee := *p.AssignedTo.Value
			t.AssignedTo = &assignee
		}
	}
}

// Empty reports whether the patch changes nothing.
func (p TicketPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && !p.AssignedTo.Set
}
