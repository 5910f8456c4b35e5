package sessionsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/plannerhq/sessiond/pkg/httpx"
)

// Error codes shared between the server and this SDK.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidArgument    = "invalid_argument"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeAccountExists      = "account_exists"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeTokenExpired       = "token_expired"
	ErrorCodeTokenRevoked       = "revoked_refresh_token"
	ErrorCodeRolesStale         = "roles_stale"
	ErrorCodeRolesUnchanged     = "roles_unchanged"
	ErrorCodeServerError        = "server_error"
)

// APIError is the error envelope both sides of the wire speak. Handlers use
// WriteError to emit it; the SDK client decodes responses back into it.
type APIError struct {
	// StatusCode is the HTTP status for this error. Not serialized.
	StatusCode int `json:"-"`

	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes the error as a JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

var (
	// ErrInvalidRequest covers malformed bodies and missing parameters.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrInvalidArgument covers well-formed requests with unacceptable values.
	ErrInvalidArgument = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidArgument,
		Description: "a request field failed validation",
	}

	// ErrInvalidCredentials deliberately does not say whether the email or
	// the password was wrong.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid email or password",
	}

	// ErrAccountExists is returned when the username or email is taken.
	ErrAccountExists = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeAccountExists,
		Description: "an account with that username or email already exists",
	}

	// ErrInvalidToken is returned for tokens that fail verification.
	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "token verification failed",
	}

	// ErrTokenExpired is returned for well-formed but expired tokens.
	ErrTokenExpired = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeTokenExpired,
		Description: "token has expired",
	}

	// ErrTokenRevoked is returned when a refresh token is no longer the
	// session of record, whatever its cryptographic state.
	ErrTokenRevoked = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeTokenRevoked,
		Description: "refresh token has been revoked",
	}

	// ErrRolesStale signals that the role snapshot no longer matches the
	// store and the client should renew instead of refreshing.
	ErrRolesStale = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeRolesStale,
		Description: "role assignments changed, renew the session",
	}

	// ErrRolesUnchanged is returned by renew when there is nothing to pick
	// up and the fast path should have been used.
	ErrRolesUnchanged = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeRolesUnchanged,
		Description: "role assignments are unchanged, use refresh",
	}

	// ErrServerError is the catch-all for unexpected failures.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)
