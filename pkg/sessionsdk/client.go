package sessionsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoSession reports a cold start with no persisted refresh token. It is
// the normal first-visit outcome, not a failure.
var ErrNoSession = errors.New("sessionsdk: no persisted session")

// Client talks to the session service. It provides the unauthenticated
// operations and creates authenticated Sessions.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SignUp creates a new account.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResponse, error) {
	resp, err := c.postJSON(ctx, "/auth/signup", req)
	if err != nil {
		return nil, err
	}

	var out SignUpResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn exchanges credentials for an authenticated Session. The session
// keeps itself alive until SignOut or Close. A nil tokens store is allowed;
// the refresh token then lives only in memory.
func (c *Client) SignIn(ctx context.Context, email, password string, tokens TokenStore) (*Session, error) {
	resp, err := c.postJSON(ctx, "/auth/signin", SignInRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return newSession(c, tokens, out), nil
}

// ResumeSession restores a session from a persisted refresh token. Without a
// stored token it resolves to ErrNoSession immediately, no network involved.
func (c *Client) ResumeSession(ctx context.Context, tokens TokenStore) (*Session, error) {
	refreshToken, err := tokens.Load()
	if err != nil {
		return nil, err
	}
	if refreshToken == "" {
		return nil, ErrNoSession
	}

	out, err := c.acquireAccessToken(ctx, refreshToken)
	if err != nil {
		// A definitive rejection means the stored token will never work
		// again; drop it so the next start is a clean cold start.
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			_ = tokens.Remove()
		}
		return nil, err
	}
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	return newSession(c, tokens, out), nil
}

// acquireAccessToken runs the fast path and falls back to the slow path,
// mirroring what the scheduler does on every cycle.
func (c *Client) acquireAccessToken(ctx context.Context, refreshToken string) (TokenResponse, error) {
	out, err := c.refresh(ctx, refreshToken)
	if err == nil {
		return out, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return TokenResponse{}, err
	}
	return c.renew(ctx, refreshToken)
}

// refresh calls the fast path endpoint.
func (c *Client) refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	resp, err := c.postJSON(ctx, "/auth/token/refresh", RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return TokenResponse{}, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return TokenResponse{}, err
	}
	return out, nil
}

// renew calls the rotating slow path endpoint.
func (c *Client) renew(ctx context.Context, refreshToken string) (TokenResponse, error) {
	resp, err := c.postJSON(ctx, "/auth/token/renew", RenewRequest{RefreshToken: refreshToken})
	if err != nil {
		return TokenResponse{}, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return TokenResponse{}, err
	}
	return out, nil
}

// signOut revokes the refresh token server-side.
func (c *Client) signOut(ctx context.Context, refreshToken string) error {
	resp, err := c.postJSON(ctx, "/auth/signout", SignOutRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// GetLiveness checks the liveness probe.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.getHealth(ctx, "/livez")
}

// GetReadiness checks the readiness probe.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.getHealth(ctx, "/readyz")
}

func (c *Client) getHealth(ctx context.Context, path string) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var out HealthResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

func (c *Client) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// decodeJSON decodes a response into target, converting non-expected status
// codes into a typed *APIError.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func checkStatusNoContent(resp *http.Response) error {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}
	return nil
}

func parseErrorResponse(status int, body []byte) error {
	var envelope ErrorResponse
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == "" {
		return &APIError{
			StatusCode:  status,
			Code:        ErrorCodeServerError,
			Description: http.StatusText(status),
		}
	}
	return &APIError{
		StatusCode:  status,
		Code:        envelope.Error,
		Description: envelope.ErrorDescription,
	}
}
