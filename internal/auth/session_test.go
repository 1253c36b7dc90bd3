package auth

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAPIKeySessionNeverExpires(t *testing.T) {
	t.Parallel()

	session := NewAPIKeySession("lin_api_key")
	if session.TokenType != TokenTypeAPIKey {
		t.Errorf("token type = %q, want %q", session.TokenType, TokenTypeAPIKey)
	}
	if session.RefreshToken != "" {
		t.Errorf("refresh token = %q, want empty", session.RefreshToken)
	}
	if session.ExpiresAt != nil {
		t.Errorf("expires at = %v, want nil", session.ExpiresAt)
	}
	if session.IsExpired() {
		t.Error("IsExpired() = true, want false")
	}
	if session.WillExpireWithin(24 * time.Hour) {
		t.Error("WillExpireWithin(24h) = true, want false")
	}
}

func TestBearerSessionExpiryWindow(t *testing.T) {
	t.Parallel()

	session := NewBearerSession("token", "refresh", time.Now().Add(time.Minute), []string{"read"})
	if session.IsExpired() {
		t.Error("IsExpired() = true for a session expiring in one minute")
	}
	if !session.WillExpireWithin(2 * time.Minute) {
		t.Error("WillExpireWithin(2m) = false, want true")
	}
	if session.WillExpireWithin(30 * time.Second) {
		t.Error("WillExpireWithin(30s) = true, want false")
	}
}

func TestBearerSessionExpired(t *testing.T) {
	t.Parallel()

	session := NewBearerSession("token", "", time.Now().Add(-time.Second), nil)
	if !session.IsExpired() {
		t.Error("IsExpired() = false for a session that expired a second ago")
	}
}

func TestSessionEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()

	session := NewBearerSession("token", "refresh", time.Now().Add(time.Hour), []string{"read", "write"})
	envelope := SessionEnvelope{Version: sessionEnvelopeVersion, Profile: "work", Session: session}

	raw, err := json.Marshal(&envelope)
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}

	var decoded SessionEnvelope
	if err = json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if decoded.Version != sessionEnvelopeVersion {
		t.Errorf("version = %d, want %d", decoded.Version, sessionEnvelopeVersion)
	}
	if decoded.Profile != "work" {
		t.Errorf("profile = %q, want %q", decoded.Profile, "work")
	}
	if decoded.Session.AccessToken != session.AccessToken {
		t.Errorf("access token = %q, want %q", decoded.Session.AccessToken, session.AccessToken)
	}
	if decoded.Session.RefreshToken != session.RefreshToken {
		t.Errorf("refresh token = %q, want %q", decoded.Session.RefreshToken, session.RefreshToken)
	}
}

func TestSessionClone(t *testing.T) {
	t.Parallel()

	original := NewBearerSession("token", "refresh", time.Now().Add(time.Hour), []string{"read"})
	clone := original.Clone()

	clone.Scope[0] = "write"
	*clone.ExpiresAt = clone.ExpiresAt.Add(time.Hour)

	if original.Scope[0] != "read" {
		t.Error("mutating the clone's scope changed the original")
	}
	if !original.ExpiresAt.Before(*clone.ExpiresAt) {
		t.Error("mutating the clone's expiry changed the original")
	}
}
