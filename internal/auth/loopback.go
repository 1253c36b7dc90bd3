package auth

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/linear-go/linearctl/internal/browser"
)

// stateLength is the number of alphanumeric characters in the per-attempt
// anti-CSRF state parameter.
const stateLength = 32

// maxCallbackRequestBytes bounds the read of the single callback request.
// A redirect carrying a code and state fits comfortably; anything larger is
// treated as malformed.
const maxCallbackRequestBytes = 8192

// NotifyAuthorizationURL is invoked with the authorization URL before the
// browser is launched and before the listener starts waiting, so the user
// can see where to go before anything starts racing. Its error aborts the
// flow immediately.
type NotifyAuthorizationURL func(authURL string) error

// authorizationOutcome is the single-use signal from the listener goroutine
// to the foreground flow.
type authorizationOutcome struct {
	code string
	err  error
}

// RunLoopbackFlow executes the browser loopback flow on an ephemeral
// OS-chosen port. It binds a loopback listener, shows the authorization URL,
// optionally launches the system browser, waits for exactly one redirect,
// validates it, and exchanges the recovered code for a session.
func RunLoopbackFlow(ctx context.Context, client *OAuthClient, openBrowser bool, notify NotifyAuthorizationURL) (*AuthSession, error) {
	listener, err := net.Listen("tcp", net.JoinHostPort(DefaultRedirectHost, "0"))
	if err != nil {
		return nil, fmt.Errorf("failed to bind loopback listener: %w", err)
	}
	return runLoopbackFlow(ctx, client, listener, openBrowser, notify)
}

// RunLoopbackFlowPortRange executes the browser loopback flow on the first
// available port in the inclusive range. It fails with ErrNoAvailablePort
// when every port in the range is taken.
func RunLoopbackFlowPortRange(ctx context.Context, client *OAuthClient, startPort, endPort int, openBrowser bool, notify NotifyAuthorizationURL) (*AuthSession, error) {
	listener, err := listenPortRange(startPort, endPort)
	if err != nil {
		return nil, err
	}
	return runLoopbackFlow(ctx, client, listener, openBrowser, notify)
}

// listenPortRange binds the first free loopback port in [startPort, endPort].
func listenPortRange(startPort, endPort int) (net.Listener, error) {
	for port := startPort; port <= endPort; port++ {
		listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", DefaultRedirectHost, port))
		if err == nil {
			return listener, nil
		}
		log.Debugf("loopback port %d unavailable: %v", port, err)
	}
	return nil, ErrNoAvailablePort
}

// runLoopbackFlow drives a bound listener through the redirect handshake and
// token exchange. The listener is closed before returning regardless of
// outcome.
func runLoopbackFlow(ctx context.Context, client *OAuthClient, listener net.Listener, openBrowser bool, notify NotifyAuthorizationURL) (*AuthSession, error) {
	defer func() {
		_ = listener.Close()
	}()

	port := listener.Addr().(*net.TCPAddr).Port
	flowClient := client.CloneWithRedirect(DefaultRedirectURI(port))

	pkce, err := GeneratePKCECodes()
	if err != nil {
		return nil, err
	}
	state, err := randomState(stateLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state parameter: %w", err)
	}

	authURL, err := flowClient.AuthorizationURL(pkce, state)
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

	// One worker, at most one result. The deferred close lets the receiver
	// distinguish "goroutine died without an outcome" from a delivered one.
	outcomeCh := make(chan authorizationOutcome, 1)
	go func() {
		defer close(outcomeCh)
		code, errAccept := acceptAuthorization(listener, state)
		outcomeCh <- authorizationOutcome{code: code, err: errAccept}
	}()

	var code string
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case outcome, ok := <-outcomeCh:
		if !ok {
			return nil, ErrListenerClosed
		}
		if outcome.err != nil {
			return nil, outcome.err
		}
		code = outcome.code
	}

	log.Debugf("authorization code received on loopback port %d", port)

	result, err := flowClient.ExchangeCode(ctx, code, pkce)
	if err != nil {
		return nil, err
	}
	return result.Session, nil
}

// acceptAuthorization serves exactly one inbound connection: it reads the
// redirect request from a bounded buffer, validates its query parameters
// against the expected state, and always writes a terminal HTML page before
// returning so the user's browser tab never hangs.
func acceptAuthorization(listener net.Listener, expectedState string) (string, error) {
	conn, err := listener.Accept()
	if err != nil {
		return "", fmt.Errorf("failed to accept authorization redirect: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	buf := make([]byte, maxCallbackRequestBytes)
	n, err := conn.Read(buf)
	if err != nil {
		return "", fmt.Errorf("failed to read authorization redirect: %w", err)
	}

	query, err := parseCallbackRequest(string(buf[:n]))
	if err != nil {
		writeCallbackResponse(conn, 400, loginFailureHTML)
		return "", err
	}

	if errParam := query.Get("error"); errParam != "" {
		writeCallbackResponse(conn, 400, loginFailureHTML)
		return "", &AccessDeniedError{Reason: errParam}
	}

	code := query.Get("code")
	if code == "" {
		writeCallbackResponse(conn, 400, loginFailureHTML)
		return "", ErrMissingAuthorizationCode
	}

	if query.Get("state") != expectedState {
		writeCallbackResponse(conn, 400, loginFailureHTML)
		return "", ErrStateMismatch
	}

	writeCallbackResponse(conn, 200, loginSuccessHTML)
	return code, nil
}

// parseCallbackRequest extracts the query parameters from the raw bytes of
// the callback HTTP request.
func parseCallbackRequest(request string) (url.Values, error) {
	line, _, ok := strings.Cut(request, "\r\n")
	if !ok {
		line, _, _ = strings.Cut(request, "\n")
	}
	if strings.TrimSpace(line) == "" {
		return nil, &InvalidAuthorizationResponseError{Reason: "missing request line"}
	}

	parts := strings.Fields(line)
	if len(parts) < 2 {
		return nil, &InvalidAuthorizationResponseError{Reason: "missing request path"}
	}

	target, err := url.Parse("http://" + DefaultRedirectHost + parts[1])
	if err != nil {
		return nil, &InvalidAuthorizationResponseError{Reason: fmt.Sprintf("malformed request path: %v", err)}
	}
	return target.Query(), nil
}

// writeCallbackResponse writes a minimal HTML response and leaves the socket
// for the deferred close. Write failures are logged only; the authorization
// outcome has already been decided.
func writeCallbackResponse(conn net.Conn, status int, body string) {
	statusLine := "HTTP/1.1 200 OK"
	if status != 200 {
		statusLine = "HTTP/1.1 400 Bad Request"
	}
	response := fmt.Sprintf(
		"%s\r\nContent-Type: text/html; charset=utf-8\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s",
		statusLine, len(body), body,
	)
	if _, err := conn.Write([]byte(response)); err != nil {
		log.Debugf("failed to write callback response: %v", err)
	}
}
