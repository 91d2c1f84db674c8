package dto

import (
	"time"

	"github.com/residence-ops/residence-tickets/internal/domain"
)

// TicketResponse is the persisted ticket shape.
type TicketResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      domain.TicketStatus `json:"status"`
	AssignedTo  *string             `json:"assignedTo"`
	Version     int64               `json:"version"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// TicketListResponse splits tickets into the active and archived lists when
// requested with ?view=partitioned.
type TicketListResponse struct {
	Active   []TicketResponse `json:"active"`
	Archived []TicketResponse `json:"archived"`
}

// CommentResponse is the persisted comment shape.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		AssignedTo:  t.AssignedTo,
		Version:     t.Version,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// NewTicketResponses maps a slice, never returning nil.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return items
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		TicketID:  c.TicketID,
		Content:   c.Content,
		AuthorID:  c.AuthorID,
		CreatedAt: c.CreatedAt,
	}
}

// NewCommentResponses maps a slice, never returning nil.
func NewCommentResponses(comments []domain.Comment) []CommentResponse {
	items := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, NewCommentResponse(&comments[i]))
	}
	return items
}
