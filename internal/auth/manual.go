package auth

import (
	"context"
	"net/url"
	"strings"

	"github.com/linear-go/linearctl/internal/browser"
)

// ReadAuthorizationInput reads one line of user input: either the full
// redirect URL or a bare authorization code. It is invoked exactly once per
// manual flow and should honour context cancellation.
type ReadAuthorizationInput func(ctx context.Context) (string, error)

// RunManualFlow executes the copy/paste login flow. The authorization URL is
// built and shown exactly as in the loopback flow, but the code is recovered
// from pasted input instead of a listener.
func RunManualFlow(ctx context.Context, client *OAuthClient, openBrowser bool, notify NotifyAuthorizationURL, readInput ReadAuthorizationInput) (*AuthSession, error) {
	pkce, err := GeneratePKCECodes()
	if err != nil {
		return nil, err
	}
	state, err := randomState(stateLength)
	if err != nil {
		return nil, err
	}

	authURL, err := client.AuthorizationURL(pkce, state)
	if err != nil {
		return nil, err
	}

	if err = notify(authURL); err != nil {
		return nil, err
	}

	if openBrowser {
		if errOpen := browser.OpenURL(authURL); errOpen != nil {
			return nil, &BrowserLaunchError{Reason: errOpen.Error()}
		}
	}

	raw, err := readInput(ctx)
	if err != nil {
		return nil, err
	}

	response, err := parseManualInput(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}

	// A pasted redirect URL carries a state to validate; a bare code has
	// nothing to check, which is a deliberate relaxation.
	if response.state != "" && response.state != state {
		return nil, ErrStateMismatch
	}

	result, err := client.ExchangeCode(ctx, response.code, pkce)
	if err != nil {
		return nil, err
	}
	return result.Session, nil
}

// authorizationResponse is a parsed manual input: the code plus an optional
// state when the input was a full redirect URL.
type authorizationResponse struct {
	code  string
	state string
}

// parseManualInput interprets trimmed user input as either a redirect URL or
// a raw authorization code.
func parseManualInput(input string) (*authorizationResponse, error) {
	if input == "" {
		return nil, &InvalidAuthorizationResponseError{Reason: "empty input"}
	}

	if parsed, err := url.Parse(input); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		query := parsed.Query()
		if errParam := query.Get("error"); errParam != "" {
			return nil, &AccessDeniedError{Reason: errParam}
		}
		code := query.Get("code")
		if code == "" {
			return nil, ErrMissingAuthorizationCode
		}
		return &authorizationResponse{code: code, state: query.Get("state")}, nil
	}

	return &authorizationResponse{code: input}, nil
}
