// Package auth implements the authentication and credential-lifecycle subsystem
// for the Linear CLI. It covers PKCE generation, the OAuth2 token grant exchanges,
// the browser loopback and manual copy/paste login flows, durable credential
// storage, and refresh-on-read session management.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// pkceVerifierBytes is the number of random bytes backing the code verifier.
// 32 bytes encode to 43 base64url characters, the RFC 7636 minimum.
const pkceVerifierBytes = 32

// PKCECodes holds a PKCE code verifier and its derived challenge
// as defined by RFC 7636 for the OAuth 2.0 S256 challenge method.
type PKCECodes struct {
	// CodeVerifier is the URL-safe random secret sent with the token exchange.
	CodeVerifier string
	// CodeChallenge is the base64url-encoded SHA-256 digest of the verifier,
	// sent with the authorization request.
	CodeChallenge string
}

// GeneratePKCECodes generates a fresh PKCE verifier and challenge pair.
// A new pair is generated for every login attempt and never persisted.
// An error here means the process randomness source is broken and the
// caller should treat the condition as fatal.
func GeneratePKCECodes() (*PKCECodes, error) {
	verifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	return &PKCECodes{
		CodeVerifier:  verifier,
		CodeChallenge: generateCodeChallenge(verifier),
	}, nil
}

// generateCodeVerifier creates a cryptographically random URL-safe string
// of 43 characters (32 random bytes, base64url without padding).
func generateCodeVerifier() (string, error) {
	buf := make([]byte, pkceVerifierBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// generateCodeChallenge derives the S256 challenge for a verifier.
func generateCodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// randomState produces a random alphanumeric state parameter of the given
// length for CSRF protection during the authorization redirect.
func randomState(length int) (string, error) {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}
