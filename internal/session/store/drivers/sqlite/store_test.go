package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/plannerhq/sessiond/internal/session/domain"
	"github.com/plannerhq/sessiond/internal/session/store"
	"github.com/plannerhq/sessiond/internal/session/store/drivers/sqlite"
	"github.com/plannerhq/sessiond/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "sessiond.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func createTestUser(t *testing.T, st *sqlite.Store, username string, roles ...string) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
	}
	ctx := context.Background()
	require.NoError(t, st.Users().CreateUser(ctx, u))
	for _, role := range roles {
		require.NoError(t, st.Roles().GrantRole(ctx, u.ID, role))
	}
	return u
}

func TestUsersRepo(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, st, "alice")

	t.Run("lookup by id, username and email", func(t *testing.T) {
		byID, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "alice", byID.Username)
		require.Empty(t, byID.RefreshJTI)

		byName, err := st.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, u.ID, byName.ID)

		byEmail, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)
	})

	t.Run("missing user maps to ErrNotFound", func(t *testing.T) {
		_, err := st.Users().GetUserByID(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate username maps to ErrAlreadyExists", func(t *testing.T) {
		err := st.Users().CreateUser(ctx, domain.User{
			ID:           idx.New().String(),
			Username:     "alice",
			Email:        "other@example.com",
			PasswordHash: "x",
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})
}

func TestSessionsRepo(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, st, "bob")

	t.Run("set and check current jti", func(t *testing.T) {
		require.NoError(t, st.Sessions().SetRefreshJTI(ctx, u.ID, "jti-1"))

		ok, err := st.Sessions().IsCurrentRefreshJTI(ctx, u.ID, "jti-1")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = st.Sessions().IsCurrentRefreshJTI(ctx, u.ID, "jti-other")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("swap succeeds only against the recorded jti", func(t *testing.T) {
		require.NoError(t, st.Sessions().SwapRefreshJTI(ctx, u.ID, "jti-1", "jti-2"))

		// The displaced jti can no longer swap.
		err := st.Sessions().SwapRefreshJTI(ctx, u.ID, "jti-1", "jti-3")
		require.ErrorIs(t, err, store.ErrJTIMismatch)

		ok, err := st.Sessions().IsCurrentRefreshJTI(ctx, u.ID, "jti-2")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("clearing signs the session out", func(t *testing.T) {
		require.NoError(t, st.Sessions().SetRefreshJTI(ctx, u.ID, ""))

		ok, err := st.Sessions().IsCurrentRefreshJTI(ctx, u.ID, "jti-2")
		require.NoError(t, err)
		require.False(t, ok)

		// An empty presented jti never matches, even against a cleared row.
		ok, err = st.Sessions().IsCurrentRefreshJTI(ctx, u.ID, "")
		require.NoError(t, err)
		require.False(t, ok)

		// A cleared session cannot be swapped from.
		err = st.Sessions().SwapRefreshJTI(ctx, u.ID, "jti-2", "jti-4")
		require.ErrorIs(t, err, store.ErrJTIMismatch)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := st.Sessions().SetRefreshJTI(ctx, "missing", "jti-x")
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = st.Sessions().IsCurrentRefreshJTI(ctx, "missing", "jti-x")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestRolesRepo(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, st, "carol", "user")

	t.Run("roles come back sorted", func(t *testing.T) {
		require.NoError(t, st.Roles().GrantRole(ctx, u.ID, "moderator"))

		roles, err := st.Roles().GetUserRoles(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"moderator", "user"}, roles)
	})

	t.Run("granting twice is a no-op", func(t *testing.T) {
		require.NoError(t, st.Roles().GrantRole(ctx, u.ID, "moderator"))

		roles, err := st.Roles().GetUserRoles(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, roles, 2)
	})

	t.Run("unknown role name errors", func(t *testing.T) {
		err := st.Roles().GrantRole(ctx, u.ID, "superuser")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("RolesChanged is order-insensitive", func(t *testing.T) {
		changed, err := st.Roles().RolesChanged(ctx, u.ID, []string{"user", "moderator"})
		require.NoError(t, err)
		require.False(t, changed)

		changed, err = st.Roles().RolesChanged(ctx, u.ID, []string{"user"})
		require.NoError(t, err)
		require.True(t, changed)
	})

	t.Run("revoke", func(t *testing.T) {
		require.NoError(t, st.Roles().RevokeRole(ctx, u.ID, "moderator"))

		roles, err := st.Roles().GetUserRoles(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"user"}, roles)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, st, "dave")

	require.NoError(t, st.Sessions().SetRefreshJTI(ctx, u.ID, "before"))

	sentinel := store.ErrJTIMismatch
	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Sessions().SetRefreshJTI(ctx, u.ID, "inside"); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	ok, err := st.Sessions().IsCurrentRefreshJTI(ctx, u.ID, "before")
	require.NoError(t, err)
	require.True(t, ok)
}
