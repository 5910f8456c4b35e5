package sessionsdk

// SignUpRequest creates a new account.
type SignUpRequest struct {
	// Username is the login handle (3+ chars).
	Username string `json:"username"`

	// Email is the unique sign-in address.
	Email string `json:"email"`

	// Password is the plaintext password (8+ chars). It is hashed server-side.
	Password string `json:"password"`
}

// SignUpResponse describes the created account.
type SignUpResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// SignInRequest exchanges credentials for a token pair.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest asks for a new access token on the fast path. The server
// does not consult session state and the role snapshot is carried over.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RenewRequest asks for a full rotation: fresh roles, fresh refresh token.
type RenewRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SignOutRequest ends the session identified by the refresh token.
type SignOutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse carries newly issued tokens. RefreshToken is only present
// when the operation rotated the session (sign-in and renew).
type TokenResponse struct {
	// AccessToken is the short-lived JWT used on the Authorization header.
	AccessToken string `json:"accessToken"`

	// RefreshToken is the long-lived JWT whose jti is the session of record.
	RefreshToken string `json:"refreshToken,omitempty"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`
}

// UserInfoResponse is the authenticated profile view. Roles come from the
// store, not the token snapshot, so it always reflects current assignments.
type UserInfoResponse struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// ErrorResponse is the JSON error envelope used by every endpoint.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// HealthChecks reports the status of each critical dependency.
type HealthChecks struct {
	Database string `json:"database"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
