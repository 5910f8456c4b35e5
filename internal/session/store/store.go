package store

import (
	"context"
	"errors"
	"sort"

	"github.com/plannerhq/sessiond/internal/session/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrJTIMismatch reports that a conditional jti swap found a different
	// jti recorded than the one presented: the presented refresh token has
	// been displaced by a later sign-in or renewal.
	ErrJTIMismatch = errors.New("store: refresh jti mismatch")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Roles() Roles
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back if fn returns
	// an error and committing otherwise. Use it for multi-step operations
	// that must be atomic (e.g. refresh token rotation).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during sign-in.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail is used during sign-in and sign-up uniqueness checks.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error
}

type Roles interface {
	// GetUserRoles returns the authoritative role names for a user, sorted
	// by name. Independent of any role snapshot carried inside a token.
	GetUserRoles(ctx context.Context, userID string) ([]string, error)

	// GrantRole adds a role to a user. Granting an already-held role is a
	// no-op.
	GrantRole(ctx context.Context, userID, roleName string) error

	// RevokeRole removes a role from a user.
	RevokeRole(ctx context.Context, userID, roleName string) error

	// RolesChanged reports whether the authoritative role set differs from
	// the snapshot, order-insensitive. True means the snapshot is stale.
	RolesChanged(ctx context.Context, userID string, snapshot []string) (bool, error)
}

type Sessions interface {
	// SetRefreshJTI records jti as the current refresh token identifier for
	// the user in a single atomic update. An empty jti clears it
	// (sign-out). Concurrent writers race; last write wins.
	SetRefreshJTI(ctx context.Context, userID, jti string) error

	// SwapRefreshJTI replaces oldJTI with newJTI in a single conditional
	// update. Returns ErrJTIMismatch when oldJTI is no longer the recorded
	// jti, so a stale refresh token can never rotate the session.
	SwapRefreshJTI(ctx context.Context, userID, oldJTI, newJTI string) error

	// IsCurrentRefreshJTI reports whether jti is the recorded refresh token
	// identifier for the user. A cleared session matches nothing.
	IsCurrentRefreshJTI(ctx context.Context, userID, jti string) (bool, error)
}

// RolesEqual reports set equality of two role name lists, ignoring order and
// duplicates.
func RolesEqual(a, b []string) bool {
	as := normalizeRoles(a)
	bs := normalizeRoles(b)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func normalizeRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
