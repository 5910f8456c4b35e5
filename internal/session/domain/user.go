package domain

import "time"

// User is a principal. RefreshJTI tracks the identifier of the last-issued
// refresh token; it is the single source of truth for which refresh token is
// currently live (empty means signed out).
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // argon2 encoded
	RefreshJTI   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
