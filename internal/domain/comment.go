package domain

import "time"

// ContentMaxLength bounds comment bodies.
const ContentMaxLength = 5000

// Comment is an immutable note in a ticket thread.
type Comment struct {
	ID        string
	TicketID  string
	Content   string
	AuthorID  string
	CreatedAt time.Time
}
