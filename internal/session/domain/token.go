package domain

// TokenPair is what sign-in and renewal hand back: a short-lived access
// token and the refresh token whose jti is now recorded for the principal.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
