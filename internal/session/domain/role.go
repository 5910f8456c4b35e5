package domain

import "time"

// Well-known role names seeded by the initial migration.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type Role struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
