package domain

import "time"

// Session is a server-side login session referenced by a token id.
type Session struct {
	ID        string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
