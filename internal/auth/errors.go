package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for terminal authorization outcomes.
var (
	// ErrRefreshUnavailable is returned when a refresh is requested for a
	// session that carries no refresh token. The token endpoint is never
	// contacted in that case.
	ErrRefreshUnavailable = errors.New("token refresh unavailable: session has no refresh token")

	// ErrStateMismatch is returned when the state echoed by the authorization
	// server does not match the one generated for the current attempt.
	ErrStateMismatch = errors.New("authorization state mismatch")

	// ErrMissingAuthorizationCode is returned when a redirect or pasted
	// response carries no code parameter.
	ErrMissingAuthorizationCode = errors.New("authorization response missing code parameter")

	// ErrListenerClosed is returned when the loopback listener task ended
	// without delivering an authorization outcome.
	ErrListenerClosed = errors.New("authorization listener terminated before receiving redirect")

	// ErrNoAvailablePort is returned when every port in the configured
	// loopback range is already taken.
	ErrNoAvailablePort = errors.New("no available loopback port in the configured range")
)

// TokenEndpointError reports a non-2xx response from the OAuth token endpoint.
// The raw body is captured for diagnostics and never parsed as JSON.
type TokenEndpointError struct {
	// StatusCode is the HTTP status returned by the token endpoint.
	StatusCode int
	// Body is the raw response body text.
	Body string
}

// Error returns a string representation of the token endpoint failure.
func (e *TokenEndpointError) Error() string {
	return fmt.Sprintf("token endpoint error %d: %s", e.StatusCode, e.Body)
}

// InvalidTokenTypeError reports a token response whose token_type is not a
// case-insensitive "bearer".
type InvalidTokenTypeError struct {
	TokenType string
}

// Error returns a string representation of the invalid token type.
func (e *InvalidTokenTypeError) Error() string {
	return fmt.Sprintf("invalid token type %q", e.TokenType)
}

// AccessDeniedError reports an error parameter returned by the authorization
// server, typically because the user declined the request.
type AccessDeniedError struct {
	Reason string
}

// Error returns a string representation of the denial.
func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("authorization request denied (%s)", e.Reason)
}

// BrowserLaunchError reports a failure to open the system browser. Callers
// are expected to fall back to the manual flow when they see this error.
type BrowserLaunchError struct {
	Reason string
}

// Error returns a string representation of the launch failure.
func (e *BrowserLaunchError) Error() string {
	return fmt.Sprintf("failed to launch system browser: %s", e.Reason)
}

// InvalidAuthorizationResponseError reports a malformed redirect request or
// pasted authorization response.
type InvalidAuthorizationResponseError struct {
	Reason string
}

// Error returns a string representation of the malformed response.
func (e *InvalidAuthorizationResponseError) Error() string {
	return fmt.Sprintf("invalid authorization response: %s", e.Reason)
}

// IsFlowFallbackError reports whether the error is one the caller can recover
// from by switching to the manual flow: a browser launch failure or the
// loopback port range being exhausted.
func IsFlowFallbackError(err error) bool {
	var launchErr *BrowserLaunchError
	return errors.As(err, &launchErr) || errors.Is(err, ErrNoAvailablePort)
}

// UserFriendlyMessage maps an authentication error to a message suitable for
// terminal output. Every error kind renders distinctly so a user can tell a
// mistyped client ID from a denied consent screen.
func UserFriendlyMessage(err error) string {
	var (
		endpointErr *TokenEndpointError
		tokenErr    *InvalidTokenTypeError
		deniedErr   *AccessDeniedError
		launchErr   *BrowserLaunchError
		responseErr *InvalidAuthorizationResponseError
	)

	switch {
	case errors.As(err, &endpointErr):
		return fmt.Sprintf("The token endpoint rejected the request (HTTP %d): %s", endpointErr.StatusCode, endpointErr.Body)
	case errors.As(err, &tokenErr):
		return fmt.Sprintf("The server returned an unsupported token type %q.", tokenErr.TokenType)
	case errors.As(err, &deniedErr):
		return fmt.Sprintf("Authorization was denied (%s). Re-run the login command to try again.", deniedErr.Reason)
	case errors.As(err, &launchErr):
		return "Could not open your browser automatically. Use the manual flow and paste the redirect URL instead."
	case errors.As(err, &responseErr):
		return fmt.Sprintf("The authorization response could not be understood: %s.", responseErr.Reason)
	case errors.Is(err, ErrStateMismatch):
		return "The authorization response did not match this login attempt. The page may have been stale; re-run the login command."
	case errors.Is(err, ErrMissingAuthorizationCode):
		return "The authorization response did not include a code. Copy the full redirect URL and try again."
	case errors.Is(err, ErrRefreshUnavailable):
		return "The stored session cannot be refreshed. Please log in again."
	case errors.Is(err, ErrNoAvailablePort):
		return "No local port was available for the browser login. Use the manual flow instead."
	case errors.Is(err, ErrListenerClosed):
		return "The local login listener stopped before receiving the redirect. Re-run the login command."
	default:
		return err.Error()
	}
}
