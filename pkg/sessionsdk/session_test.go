package sessionsdk_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/plannerhq/sessiond/pkg/sessionsdk"
	"github.com/stretchr/testify/require"
)

// fakeAuthServer emulates the token endpoints with programmable behaviour
// and per-endpoint call counters.
type fakeAuthServer struct {
	*httptest.Server

	refreshCalls atomic.Int64
	renewCalls   atomic.Int64
	signoutCalls atomic.Int64

	mu           sync.Mutex
	refreshDelay time.Duration
	refreshCode  string // error code for refresh, "" means success
	renewCode    string // error code for renew, "" means success
	rotateTo     string // refresh token returned by renew
	expiresIn    int
}

func newFakeAuthServer(t *testing.T) *fakeAuthServer {
	t.Helper()

	f := &fakeAuthServer{expiresIn: 600}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)

		f.mu.Lock()
		delay, code, expiresIn := f.refreshDelay, f.refreshCode, f.expiresIn
		f.mu.Unlock()

		time.Sleep(delay)
		if code != "" {
			writeError(w, code)
			return
		}
		writeJSON(w, http.StatusOK, sessionsdk.TokenResponse{
			AccessToken: "access-via-refresh",
			TokenType:   "Bearer",
			ExpiresIn:   expiresIn,
		})
	})
	mux.HandleFunc("POST /auth/token/renew", func(w http.ResponseWriter, r *http.Request) {
		f.renewCalls.Add(1)

		f.mu.Lock()
		code, rotateTo, expiresIn := f.renewCode, f.rotateTo, f.expiresIn
		f.mu.Unlock()

		if code != "" {
			writeError(w, code)
			return
		}
		writeJSON(w, http.StatusOK, sessionsdk.TokenResponse{
			AccessToken:  "access-via-renew",
			RefreshToken: rotateTo,
			TokenType:    "Bearer",
			ExpiresIn:    expiresIn,
		})
	})
	mux.HandleFunc("POST /auth/signout", func(w http.ResponseWriter, r *http.Request) {
		f.signoutCalls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code string) {
	writeJSON(w, http.StatusUnauthorized, sessionsdk.ErrorResponse{Error: code})
}

func storedSession(t *testing.T, f *fakeAuthServer, store sessionsdk.TokenStore) *sessionsdk.Session {
	t.Helper()

	require.NoError(t, store.Save("stored-refresh-token"))
	session, err := sessionsdk.NewClient(f.URL).ResumeSession(context.Background(), store)
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

func TestColdStartWithoutTokenIsOffline(t *testing.T) {
	t.Parallel()
	f := newFakeAuthServer(t)

	_, err := sessionsdk.NewClient(f.URL).ResumeSession(context.Background(), &sessionsdk.MemoryTokenStore{})
	require.ErrorIs(t, err, sessionsdk.ErrNoSession)

	// No session means no network traffic at all.
	require.Zero(t, f.refreshCalls.Load())
	require.Zero(t, f.renewCalls.Load())
}

func TestResumeUsesFastPath(t *testing.T) {
	t.Parallel()
	f := newFakeAuthServer(t)

	session := storedSession(t, f, &sessionsdk.MemoryTokenStore{})

	require.Equal(t, "access-via-refresh", session.AccessToken())
	require.Equal(t, "stored-refresh-token", session.RefreshToken())
	require.EqualValues(t, 1, f.refreshCalls.Load())
	require.Zero(t, f.renewCalls.Load())
}

func TestConcurrentTriggersCollapse(t *testing.T) {
	t.Parallel()
	f := newFakeAuthServer(t)
	f.mu.Lock()
	f.refreshDelay = 100 * time.Millisecond
	f.mu.Unlock()

	session := storedSession(t, f, &sessionsdk.MemoryTokenStore{})
	require.EqualValues(t, 1, f.refreshCalls.Load())

	// Ten near-simultaneous triggers while one cycle is in flight must
	// produce exactly one extra network call.
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session.Refresh()
		}()
	}
	wg.Wait()

	require.EqualValues(t, 2, f.refreshCalls.Load())
}

func TestFallbackToRenewRotatesAndPersists(t *testing.T) {
	t.Parallel()
	f := newFakeAuthServer(t)
	store := &sessionsdk.MemoryTokenStore{}
	session := storedSession(t, f, store)

	// Server starts signalling stale roles on the fast path.
	f.mu.Lock()
	f.refreshCode = "roles_stale"
	f.rotateTo = "rotated-refresh-token"
	f.mu.Unlock()

	session.Refresh()

	require.Equal(t, "access-via-renew", session.AccessToken())
	require.Equal(t, "rotated-refresh-token", session.RefreshToken())

	persisted, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "rotated-refresh-token", persisted)
}

func TestBothPathsFailingEndsSessionOnce(t *testing.T) {
	t.Parallel()
	f := newFakeAuthServer(t)
	store := &sessionsdk.MemoryTokenStore{}
	session := storedSession(t, f, store)

	var notifications atomic.Int64
	session.OnSignedOut(func() { notifications.Add(1) })

	f.mu.Lock()
	f.refreshCode = "token_expired"
	f.renewCode = "token_expired"
	f.mu.Unlock()

	session.Refresh()
	session.Refresh() // already closed, must be a no-op

	require.True(t, session.Closed())
	require.Empty(t, session.AccessToken())
	require.EqualValues(t, 1, notifications.Load())

	persisted, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, persisted)
}

func TestSchedulerRefreshesBeforeExpiry(t *testing.T) {
	t.Parallel()
	f := newFakeAuthServer(t)
	f.mu.Lock()
	f.expiresIn = 1 // the timer fires almost immediately with a 1s lifetime
	f.mu.Unlock()

	storedSession(t, f, &sessionsdk.MemoryTokenStore{})

	require.Eventually(t, func() bool {
		return f.refreshCalls.Load() >= 2
	}, 3*time.Second, 10*time.Millisecond, "timer should trigger background refreshes")
}

func TestSignOutClearsBothSides(t *testing.T) {
	t.Parallel()
	f := newFakeAuthServer(t)
	store := &sessionsdk.MemoryTokenStore{}
	session := storedSession(t, f, store)

	require.NoError(t, session.SignOut(context.Background()))
	require.True(t, session.Closed())
	require.EqualValues(t, 1, f.signoutCalls.Load())

	persisted, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, persisted)

	// Repeated sign-out is harmless and makes no further calls.
	require.NoError(t, session.SignOut(context.Background()))
	require.EqualValues(t, 1, f.signoutCalls.Load())
}

func TestResumeWithRejectedTokenCleansUp(t *testing.T) {
	t.Parallel()
	f := newFakeAuthServer(t)
	f.mu.Lock()
	f.refreshCode = "invalid_token"
	f.renewCode = "invalid_token"
	f.mu.Unlock()

	store := &sessionsdk.MemoryTokenStore{}
	require.NoError(t, store.Save("dead-token"))

	_, err := sessionsdk.NewClient(f.URL).ResumeSession(context.Background(), store)

	var apiErr *sessionsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "invalid_token", apiErr.Code)

	persisted, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, persisted)
}

func TestFileTokenStore(t *testing.T) {
	t.Parallel()

	store := &sessionsdk.FileTokenStore{Path: filepath.Join(t.TempDir(), "refresh-token")}

	// Empty before anything is saved, and Remove is idempotent.
	token, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, token)
	require.NoError(t, store.Remove())

	require.NoError(t, store.Save("some-refresh-token"))
	token, err = store.Load()
	require.NoError(t, err)
	require.Equal(t, "some-refresh-token", token)

	require.NoError(t, store.Remove())
	token, err = store.Load()
	require.NoError(t, err)
	require.Empty(t, token)
}
