package sessionsdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// refreshLead is how far before access token expiry the scheduler fires.
const refreshLead = time.Second

// Session is an authenticated session that keeps its access token fresh. It
// holds the access token in memory, persists the refresh token through the
// TokenStore it was created with, and re-acquires an access token shortly
// before expiry on a single-slot timer. Safe for concurrent use.
type Session struct {
	client *Client
	tokens TokenStore // nil means memory-only

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	timer        *time.Timer // at most one outstanding timer
	inFlight     bool        // collapses concurrent refresh triggers
	closed       bool        // set once, on sign-out or teardown

	onSignedOut func()
}

func newSession(client *Client, tokens TokenStore, resp TokenResponse) *Session {
	s := &Session{
		client: client,
		tokens: tokens,
	}

	s.mu.Lock()
	s.applyLocked(resp)
	s.mu.Unlock()
	return s
}

// OnSignedOut registers a callback fired exactly once when the session ends
// for any reason other than an explicit SignOut or Close.
func (s *Session) OnSignedOut(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSignedOut = fn
}

// AccessToken returns the current access token. It may be close to expiry;
// the scheduler replaces it in the background.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken
}

// Closed reports whether the session has ended.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Refresh triggers a refresh immediately, collapsing into any cycle already
// in flight. Useful after a 401 on an API call.
func (s *Session) Refresh() {
	s.performRefresh()
}

// SignOut revokes the session server-side and clears all client state. The
// persisted refresh token is removed even if the server call fails, so a
// repeated SignOut is safe.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	refreshToken := s.refreshToken
	s.clearLocked()
	s.mu.Unlock()

	var errs []error
	if s.tokens != nil {
		if err := s.tokens.Remove(); err != nil {
			errs = append(errs, err)
		}
	}
	if refreshToken != "" {
		if err := s.client.signOut(ctx, refreshToken); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close stops the scheduler without revoking the server-side session. The
// persisted refresh token is kept so the session can be resumed later.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.clearLocked()
}

// GetUserInfo fetches the authenticated profile, including the authoritative
// role set.
func (s *Session) GetUserInfo(ctx context.Context) (*UserInfoResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.client.url("/auth/userinfo"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.AccessToken())

	resp, err := s.client.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var out UserInfoResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Do sends an authenticated request through the session's client.
func (s *Session) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.client.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.AccessToken())
	return s.client.HTTPClient.Do(req)
}

// performRefresh is the scheduler's one cycle: fast path, slow path fallback,
// teardown when both fail. The in-flight flag collapses concurrent triggers
// (timer firing plus a manual Refresh) into a single network round trip.
func (s *Session) performRefresh() {
	s.mu.Lock()
	if s.inFlight || s.closed {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	refreshToken := s.refreshToken
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	resp, err := s.client.acquireAccessToken(context.Background(), refreshToken)
	if err != nil {
		s.teardown()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		// Session ended while the call was in flight; drop the result.
		return
	}
	s.applyLocked(resp)
}

// applyLocked installs a token response and re-arms the timer. Caller holds mu.
func (s *Session) applyLocked(resp TokenResponse) {
	s.accessToken = resp.AccessToken
	s.expiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)

	if resp.RefreshToken != "" && resp.RefreshToken != s.refreshToken {
		s.refreshToken = resp.RefreshToken
		if s.tokens != nil {
			_ = s.tokens.Save(resp.RefreshToken)
		}
	}

	s.scheduleLocked()
}

// scheduleLocked arms the single timer slot, cancelling any previous one.
// Caller holds mu.
func (s *Session) scheduleLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	delay := max(0, time.Until(s.expiresAt)-refreshLead)
	s.timer = time.AfterFunc(delay, s.performRefresh)
}

// teardown is the terminal sign-out after both paths failed. The closed flag
// guarantees observers hear about it at most once.
func (s *Session) teardown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.clearLocked()
	notify := s.onSignedOut
	s.mu.Unlock()

	if s.tokens != nil {
		_ = s.tokens.Remove()
	}
	if notify != nil {
		notify()
	}
}

// clearLocked wipes tokens and cancels the timer. Caller holds mu.
func (s *Session) clearLocked() {
	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
