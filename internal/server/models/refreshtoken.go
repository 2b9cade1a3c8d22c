package models

import "time"

// RefreshToken is an opaque, single-use token. It is deleted when exchanged
// for a new pair.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
