package auth

import (
	"time"
)

// TokenType identifies how a session token was issued and how it must be
// presented to the API.
type TokenType string

const (
	// TokenTypeBearer marks an OAuth access token with a bounded lifetime.
	TokenTypeBearer TokenType = "bearer"
	// TokenTypeAPIKey marks a static personal API key. API keys never expire
	// and carry no refresh token.
	TokenTypeAPIKey TokenType = "api_key"
)

// AuthSession is the unit of identity produced by a login flow and consumed
// by the API layer. A session is created by exactly one flow execution,
// persisted immediately, and replaced wholesale on refresh; it is never
// mutated in place.
type AuthSession struct {
	// AccessToken is the bearer token or API key value.
	AccessToken string `json:"access_token"`

	// RefreshToken is used to obtain a replacement access token. Empty for
	// API keys and for client-credentials grants that omit one.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType records whether this is an OAuth bearer token or an API key.
	TokenType TokenType `json:"token_type"`

	// ExpiresAt is the computed expiry instant. Nil means the token never
	// expires, which is always the case for API keys.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Scope lists the granted scopes in the order the server returned them.
	Scope []string `json:"scope"`

	// CreatedAt is the instant the session was obtained.
	CreatedAt time.Time `json:"created_at"`
}

// NewBearerSession builds a bearer session from a completed token exchange.
func NewBearerSession(accessToken, refreshToken string, expiresAt time.Time, scope []string) *AuthSession {
	return &AuthSession{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresAt:    &expiresAt,
		Scope:        scope,
		CreatedAt:    time.Now(),
	}
}

// NewAPIKeySession builds a non-expiring session from a static API key.
func NewAPIKeySession(key string) *AuthSession {
	return &AuthSession{
		AccessToken: key,
		TokenType:   TokenTypeAPIKey,
		Scope:       []string{},
		CreatedAt:   time.Now(),
	}
}

// IsExpired reports whether the session's access token has already expired.
// Sessions without an expiry never expire.
func (s *AuthSession) IsExpired() bool {
	if s.ExpiresAt == nil {
		return false
	}
	return !time.Now().Before(*s.ExpiresAt)
}

// WillExpireWithin reports whether the session will expire inside the given
// window. Sessions without an expiry always report false.
func (s *AuthSession) WillExpireWithin(window time.Duration) bool {
	if s.ExpiresAt == nil {
		return false
	}
	return !time.Now().Add(window).Before(*s.ExpiresAt)
}

// Clone returns a deep copy of the session.
func (s *AuthSession) Clone() *AuthSession {
	clone := *s
	if s.ExpiresAt != nil {
		expiresAt := *s.ExpiresAt
		clone.ExpiresAt = &expiresAt
	}
	if s.Scope != nil {
		clone.Scope = append([]string(nil), s.Scope...)
	}
	return &clone
}

// sessionEnvelopeVersion is the current on-disk format version. It exists so
// the store can migrate historical layouts without breaking older files.
const sessionEnvelopeVersion = 1

// SessionEnvelope is the persisted wrapper around an AuthSession. It records
// the owning profile and a format version alongside the raw session.
type SessionEnvelope struct {
	Version int          `json:"version"`
	Profile string       `json:"profile"`
	Session *AuthSession `json:"session"`
}
