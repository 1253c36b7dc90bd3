// Package linear is a minimal GraphQL client for the Linear API. It consumes
// an AuthSession from the auth subsystem to build the Authorization header
// and exposes the queries the CLI commands need.
package linear

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/linear-go/linearctl/internal/auth"
)

// DefaultEndpoint is the production Linear GraphQL endpoint.
const DefaultEndpoint = "https://api.linear.app/graphql"

// userAgent identifies this client on GraphQL requests.
const userAgent = "linearctl/0.1.0"

// ResponseError reports a GraphQL response carrying an errors array.
type ResponseError struct {
	Messages []string
}

// Error returns a string representation of the GraphQL errors.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("GraphQL returned errors: %s", strings.Join(e.Messages, "; "))
}

// StatusError reports a non-2xx HTTP response from the GraphQL endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error returns a string representation of the HTTP failure.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GraphQL endpoint error %d: %s", e.StatusCode, e.Body)
}

// Client executes GraphQL queries with the credentials of one session.
type Client struct {
	httpClient *http.Client
	endpoint   string
	authHeader string
}

// NewClient builds a client for the production endpoint.
func NewClient(session *auth.AuthSession) *Client {
	return NewClientWithEndpoint(session, DefaultEndpoint)
}

// NewClientWithEndpoint builds a client against a custom endpoint, useful
// for testing. Bearer tokens are sent with the Bearer prefix; API keys are
// sent raw, per Linear convention.
func NewClientWithEndpoint(session *auth.AuthSession, endpoint string) *Client {
	authHeader := session.AccessToken
	if session.TokenType == auth.TokenTypeBearer {
		authHeader = "Bearer " + session.AccessToken
	}
	return &Client{
		httpClient: &http.Client{},
		endpoint:   endpoint,
		authHeader: authHeader,
	}
}

// execute POSTs a GraphQL query and returns the data payload. Transport
// failures, non-2xx statuses, and GraphQL error arrays are surfaced as
// distinct error kinds.
func (c *Client) execute(ctx context.Context, query string, variables map[string]interface{}) (gjson.Result, error) {
	payload, err := sjson.Set("", "query", query)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to build request body: %w", err)
	}
	for name, value := range variables {
		if payload, err = sjson.Set(payload, "variables."+name, value); err != nil {
			return gjson.Result{}, fmt.Errorf("failed to set variable %s: %w", name, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(payload))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to create GraphQL request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("GraphQL request failed: %w", err)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Errorf("failed to close GraphQL response body: %v", errClose)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read GraphQL response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gjson.Result{}, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	parsed := gjson.ParseBytes(body)
	if errs := parsed.Get("errors"); errs.Exists() && len(errs.Array()) > 0 {
		messages := make([]string, 0, len(errs.Array()))
		for _, item := range errs.Array() {
			messages = append(messages, item.Get("message").String())
		}
		return gjson.Result{}, &ResponseError{Messages: messages}
	}

	return parsed.Get("data"), nil
}

// Viewer is the authenticated Linear user.
type Viewer struct {
	ID    string
	Name  string
	Email string
}

// Viewer fetches the current user.
func (c *Client) Viewer(ctx context.Context) (*Viewer, error) {
	const query = `query ViewerQuery { viewer { id name email } }`

	data, err := c.execute(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	viewer := data.Get("viewer")
	if !viewer.Exists() {
		return nil, fmt.Errorf("missing viewer payload in response")
	}
	return &Viewer{
		ID:    viewer.Get("id").String(),
		Name:  viewer.Get("name").String(),
		Email: viewer.Get("email").String(),
	}, nil
}

// Issue is a summary row of a Linear issue.
type Issue struct {
	Identifier string
	Title      string
	State      string
}

// Issues lists the most recently updated issues visible to the session.
func (c *Client) Issues(ctx context.Context, first int) ([]Issue, error) {
	const query = `query IssuesQuery($first: Int!) {
		issues(first: $first, orderBy: updatedAt) {
			nodes { identifier title state { name } }
		}
	}`

	data, err := c.execute(ctx, query, map[string]interface{}{"first": first})
	if err != nil {
		return nil, err
	}

	nodes := data.Get("issues.nodes").Array()
	issues := make([]Issue, 0, len(nodes))
	for _, node := range nodes {
		issues = append(issues, Issue{
			Identifier: node.Get("identifier").String(),
			Title:      node.Get("title").String(),
			State:      node.Get("state.name").String(),
		})
	}
	return issues, nil
}
