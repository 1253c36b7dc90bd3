package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// OAuth configuration defaults for the Linear API.
const (
	DefaultAuthorizationURL = "https://linear.app/oauth/authorize"
	DefaultTokenURL         = "https://api.linear.app/oauth/token"
	DefaultClientID         = "linearctl-public"
	DefaultRedirectHost     = "127.0.0.1"
	DefaultRedirectPath     = "/callback"

	// Default inclusive port range scanned by the range-binding loopback flow.
	DefaultRedirectPortStart = 9000
	DefaultRedirectPortEnd   = 9999
)

// DefaultScopes are requested when no explicit scope set is configured.
var DefaultScopes = []string{"read", "write"}

// userAgent identifies this client on token endpoint requests.
const userAgent = "linearctl/0.1.0"

// exchangeTimeout bounds the refresh and client-credentials requests, which
// run without a user watching the terminal.
const exchangeTimeout = 30 * time.Second

// DefaultRedirectURI builds the loopback redirect URI for a port.
func DefaultRedirectURI(port int) string {
	return fmt.Sprintf("http://%s:%d%s", DefaultRedirectHost, port, DefaultRedirectPath)
}

// OAuthConfig carries the client registration values supplied once per
// process. A clone with an overridden redirect URI is taken per loopback
// attempt because the port is only known after bind.
type OAuthConfig struct {
	// ClientID identifies the registered OAuth application.
	ClientID string
	// ClientSecret is optional; public clients leave it empty.
	ClientSecret string
	// RedirectURI is where the authorization server sends the user back.
	RedirectURI string
	// Scopes are the requested access scopes. Order is insignificant; they
	// are serialized as a single space-joined string on the wire.
	Scopes []string
}

// DefaultOAuthConfig returns a config pre-filled with the public client
// registration and default scopes.
func DefaultOAuthConfig() OAuthConfig {
	return OAuthConfig{
		ClientID:    DefaultClientID,
		RedirectURI: DefaultRedirectURI(DefaultRedirectPortStart),
		Scopes:      append([]string(nil), DefaultScopes...),
	}
}

// OAuthEndpoints names the authorization and token endpoints. Production
// values are fixed; tests substitute their own.
type OAuthEndpoints struct {
	AuthorizationURL string
	TokenURL         string
}

// DefaultEndpoints returns the production Linear OAuth endpoints.
func DefaultEndpoints() OAuthEndpoints {
	return OAuthEndpoints{
		AuthorizationURL: DefaultAuthorizationURL,
		TokenURL:         DefaultTokenURL,
	}
}

// TokenExchangeResult bundles the session produced by a grant exchange with
// the instant the response was received.
type TokenExchangeResult struct {
	Session    *AuthSession
	ReceivedAt time.Time
}

// OAuthClient performs the OAuth grant exchanges against the token endpoint.
// It is stateless per call; every exchange builds its own form body and
// funnels the response through a single handler.
type OAuthClient struct {
	httpClient *http.Client
	config     OAuthConfig
	endpoints  OAuthEndpoints
}

// NewOAuthClient creates an OAuth client against the production endpoints.
func NewOAuthClient(config OAuthConfig) (*OAuthClient, error) {
	return NewOAuthClientWithEndpoints(config, DefaultEndpoints())
}

// NewOAuthClientWithEndpoints creates an OAuth client with explicit
// endpoints, validating the configuration up front so later exchanges can
// assume it is well formed.
func NewOAuthClientWithEndpoints(config OAuthConfig, endpoints OAuthEndpoints) (*OAuthClient, error) {
	if strings.TrimSpace(config.ClientID) == "" {
		return nil, fmt.Errorf("oauth config: client ID is required")
	}
	if _, err := url.Parse(config.RedirectURI); err != nil {
		return nil, fmt.Errorf("oauth config: invalid redirect URI: %w", err)
	}
	if _, err := url.Parse(endpoints.AuthorizationURL); err != nil {
		return nil, fmt.Errorf("oauth config: invalid authorization URL: %w", err)
	}
	if _, err := url.Parse(endpoints.TokenURL); err != nil {
		return nil, fmt.Errorf("oauth config: invalid token URL: %w", err)
	}
	return &OAuthClient{
		httpClient: &http.Client{},
		config:     config,
		endpoints:  endpoints,
	}, nil
}

// CloneWithRedirect derives a client whose config carries the given redirect
// URI. The original config is never mutated.
func (c *OAuthClient) CloneWithRedirect(redirectURI string) *OAuthClient {
	config := c.config
	config.Scopes = append([]string(nil), c.config.Scopes...)
	config.RedirectURI = redirectURI
	return &OAuthClient{
		httpClient: c.httpClient,
		config:     config,
		endpoints:  c.endpoints,
	}
}

// Config returns the client's configuration.
func (c *OAuthClient) Config() OAuthConfig {
	return c.config
}

// Endpoints returns the client's endpoints.
func (c *OAuthClient) Endpoints() OAuthEndpoints {
	return c.endpoints
}

// AuthorizationURL builds the authorization URL for a login attempt. The
// scope parameter is omitted entirely when the scope set is empty rather
// than sent as an empty string.
func (c *OAuthClient) AuthorizationURL(pkce *PKCECodes, state string) (string, error) {
	if pkce == nil {
		return "", fmt.Errorf("PKCE codes are required")
	}

	base, err := url.Parse(c.endpoints.AuthorizationURL)
	if err != nil {
		return "", fmt.Errorf("invalid authorization URL: %w", err)
	}

	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {c.config.ClientID},
		"redirect_uri":          {c.config.RedirectURI},
		"code_challenge":        {pkce.CodeChallenge},
		"code_challenge_method": {"S256"},
		"state":                 {state},
	}
	if len(c.config.Scopes) > 0 {
		params.Set("scope", strings.Join(c.config.Scopes, " "))
	}

	base.RawQuery = params.Encode()
	return base.String(), nil
}

// ExchangeCode exchanges an authorization code for tokens using the PKCE
// verifier from the same login attempt.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string, pkce *PKCECodes) (*TokenExchangeResult, error) {
	if pkce == nil {
		return nil, fmt.Errorf("PKCE codes are required for token exchange")
	}

	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {c.config.RedirectURI},
		"code_verifier": {pkce.CodeVerifier},
		"client_id":     {c.config.ClientID},
	}
	if c.config.ClientSecret != "" {
		data.Set("client_secret", c.config.ClientSecret)
	}
	if len(c.config.Scopes) > 0 {
		data.Set("scope", strings.Join(c.config.Scopes, " "))
	}

	return c.postTokenForm(ctx, data)
}

// RefreshSession exchanges a session's refresh token for a new session. It
// fails immediately with ErrRefreshUnavailable, without contacting the
// network, when the session has no refresh token. When the server omits a
// refresh token in its response, the previous one is carried forward;
// servers are not required to rotate refresh tokens every cycle.
func (c *OAuthClient) RefreshSession(ctx context.Context, existing *AuthSession) (*TokenExchangeResult, error) {
	if existing == nil || existing.RefreshToken == "" {
		return nil, ErrRefreshUnavailable
	}

	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {existing.RefreshToken},
		"client_id":     {c.config.ClientID},
	}
	if c.config.ClientSecret != "" {
		data.Set("client_secret", c.config.ClientSecret)
	}

	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	result, err := c.postTokenForm(ctx, data)
	if err != nil {
		return nil, err
	}
	if result.Session.RefreshToken == "" {
		result.Session.RefreshToken = existing.RefreshToken
	}
	return result, nil
}

// ClientCredentials requests machine-to-machine tokens for the given scopes.
func (c *OAuthClient) ClientCredentials(ctx context.Context, scopes []string) (*TokenExchangeResult, error) {
	data := url.Values{
		"grant_type": {"client_credentials"},
		"client_id":  {c.config.ClientID},
	}
	if c.config.ClientSecret != "" {
		data.Set("client_secret", c.config.ClientSecret)
	}
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}

	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	return c.postTokenForm(ctx, data)
}

// postTokenForm POSTs a form-encoded grant request to the token endpoint and
// funnels the response through the shared handler. The token endpoint only
// ever receives form bodies, never JSON.
func (c *OAuthClient) postTokenForm(ctx context.Context, data url.Values) (*TokenExchangeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Errorf("failed to close token response body: %v", errClose)
		}
	}()

	return handleTokenResponse(resp)
}

// tokenResponse is the wire shape of a successful token endpoint response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    *int64 `json:"expires_in"`
	Scope        string `json:"scope"`
}

// handleTokenResponse converts a token endpoint HTTP response into a session.
// receivedAt is captured before the body is read so a slow response never
// inflates the token's effective lifetime.
func handleTokenResponse(resp *http.Response) (*TokenExchangeResult, error) {
	receivedAt := time.Now()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TokenEndpointError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload tokenResponse
	if err = json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	session, err := payload.intoSession(receivedAt)
	if err != nil {
		return nil, err
	}
	return &TokenExchangeResult{Session: session, ReceivedAt: receivedAt}, nil
}

// intoSession validates the wire payload and computes the session's expiry
// from the receipt instant. Server-supplied absolute timestamps are never
// trusted.
func (t tokenResponse) intoSession(receivedAt time.Time) (*AuthSession, error) {
	if !strings.EqualFold(t.TokenType, "bearer") {
		return nil, &InvalidTokenTypeError{TokenType: t.TokenType}
	}

	var expiresAt *time.Time
	if t.ExpiresIn != nil {
		ts := receivedAt.Add(time.Duration(*t.ExpiresIn) * time.Second)
		expiresAt = &ts
	}

	return &AuthSession{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresAt:    expiresAt,
		Scope:        strings.Fields(t.Scope),
		CreatedAt:    receivedAt,
	}, nil
}
