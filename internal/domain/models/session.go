package models

import "time"

const (
	// LoginExpiryMargin is subtracted from the token lifetime at login, in ms.
	LoginExpiryMargin int64 = 600_000
	// RefreshExpiryMargin is subtracted from the token lifetime on refresh, in ms.
	RefreshExpiryMargin int64 = 60_000
)

// Session is the state sealed into the portal cookie.
type Session struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresIn is the expiry in epoch milliseconds.
	ExpiresIn int64 `json:"expires_in"`
}

// NewSession derives a session from issued tokens, expiring margin ms early.
func NewSession(userID string, tokens AuthTokens, now time.Time, margin int64) Session {
	return Session{
		UserID:       userID,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    now.UnixMilli() + tokens.Expires - margin,
	}
}

// IsExpired reports whether the session has expired at now.
func (s Session) IsExpired(now time.Time) bool {
	return now.UnixMilli() > s.ExpiresIn
}

// Bearer returns the Authorization header value.
func (s Session) Bearer() string {
	return "Bearer " + s.AccessToken
}

// AuthTokens is the data of a Directus login or refresh response. Expires is
// the token lifetime in ms.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	Expires      int64  `json:"expires"`
	RefreshToken string `json:"refresh_token"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	Mode         string `json:"mode"`
}

// TokenClaims are the Directus access token claims shown by whoami.
type TokenClaims struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	AppAccess   bool   `json:"app_access"`
	AdminAccess bool   `json:"admin_access"`
	Issuer      string `json:"iss,omitempty"`
	ExpiresAt   int64  `json:"exp,omitempty"`
}

// WhoAmI describes the current session.
type WhoAmI struct {
	UserID    string      `json:"user_id"`
	ExpiresIn int64       `json:"expires_in"`
	Expired   bool        `json:"expired"`
	Claims    TokenClaims `json:"claims"`
}
