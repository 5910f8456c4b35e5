package jwtx_test

import (
	"testing"
	"time"

	"github.com/plannerhq/sessiond/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *jwtx.Codec {
	t.Helper()
	c, err := jwtx.NewCodec("access-secret-for-tests", "refresh-secret-for-tests")
	require.NoError(t, err)
	return c
}

func TestNewCodecRequiresSecrets(t *testing.T) {
	t.Parallel()

	_, err := jwtx.NewCodec("", "refresh")
	require.ErrorIs(t, err, jwtx.ErrNoSecret)

	_, err = jwtx.NewCodec("access", "")
	require.ErrorIs(t, err, jwtx.ErrNoSecret)

	_, err = jwtx.NewCodec("access", "refresh")
	require.NoError(t, err)
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	for _, kind := range []jwtx.Kind{jwtx.KindAccess, jwtx.KindRefresh} {
		t.Run(string(kind), func(t *testing.T) {
			token, issued, err := codec.Issue(kind, "user-1", "alice", []string{"user", "moderator"})
			require.NoError(t, err)
			require.NotEmpty(t, token)
			require.NotEmpty(t, issued.ID)

			claims, err := codec.Verify(kind, token)
			require.NoError(t, err)
			require.Equal(t, "user-1", claims.Subject)
			require.Equal(t, "alice", claims.Username)
			require.Equal(t, []string{"user", "moderator"}, claims.Roles)
			require.Equal(t, issued.ID, claims.ID)
		})
	}
}

func TestLifetimeIsExact(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	_, access, err := codec.IssueAt(jwtx.KindAccess, "u", "alice", nil, now)
	require.NoError(t, err)
	require.Equal(t, 10*time.Minute, access.ExpiresAt.Sub(access.IssuedAt.Time))

	_, refresh, err := codec.IssueAt(jwtx.KindRefresh, "u", "alice", nil, now)
	require.NoError(t, err)
	require.Equal(t, 7*24*time.Hour, refresh.ExpiresAt.Sub(refresh.IssuedAt.Time))
}

func TestVerifyExpiredIsNotInvalid(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	// Issued long enough ago that even the refresh TTL has elapsed.
	past := time.Now().UTC().Add(-8 * 24 * time.Hour)
	token, _, err := codec.IssueAt(jwtx.KindAccess, "u", "alice", []string{"user"}, past)
	require.NoError(t, err)

	_, err = codec.Verify(jwtx.KindAccess, token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
	require.NotErrorIs(t, err, jwtx.ErrInvalid)
}

func TestVerifyRejectsWrongKind(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	// A refresh token must never verify as an access token: the secrets
	// differ per kind.
	token, _, err := codec.Issue(jwtx.KindRefresh, "u", "alice", nil)
	require.NoError(t, err)

	_, err = codec.Verify(jwtx.KindAccess, token)
	require.ErrorIs(t, err, jwtx.ErrInvalid)
}

func TestVerifyRejectsTampering(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	token, _, err := codec.Issue(jwtx.KindAccess, "u", "alice", nil)
	require.NoError(t, err)

	_, err = codec.Verify(jwtx.KindAccess, token+"x")
	require.ErrorIs(t, err, jwtx.ErrInvalid)

	_, err = codec.Verify(jwtx.KindAccess, "not.a.jwt")
	require.ErrorIs(t, err, jwtx.ErrInvalid)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	token, _, err := codec.Issue(jwtx.KindAccess, "", "alice", nil)
	require.NoError(t, err)

	_, err = codec.Verify(jwtx.KindAccess, token)
	require.ErrorIs(t, err, jwtx.ErrInvalid)
}

func TestDecodeWithoutVerification(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	token, issued, err := codec.Issue(jwtx.KindRefresh, "user-9", "bob", []string{"user"})
	require.NoError(t, err)

	claims, err := jwtx.Decode(token)
	require.NoError(t, err)
	require.Equal(t, "user-9", claims.Subject)
	require.Equal(t, issued.ID, claims.ID)

	_, err = jwtx.Decode("garbage")
	require.ErrorIs(t, err, jwtx.ErrInvalid)
}
