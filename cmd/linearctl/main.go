// Package main provides the entry point for linearctl, a command-line client
// for the Linear issue tracker. It wires the authentication subsystem to the
// GraphQL API layer: login/logout manage a durable per-profile session, and
// every other command runs against a session refreshed on read.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/linear-go/linearctl/internal/auth"
	"github.com/linear-go/linearctl/internal/config"
	"github.com/linear-go/linearctl/internal/linear"
	"github.com/linear-go/linearctl/internal/logging"
)

var errNotLoggedIn = errors.New("not logged in: run linearctl -login first")

func main() {
	// .env is optional; ignore a missing file.
	_ = godotenv.Load()
	logging.Setup()

	var (
		login      bool
		logout     bool
		whoami     bool
		listIssues bool
		flowName   string
		apiKey     string
		noBrowser  bool
		portRange  bool
		issueCount int
		profile    string
		configPath string
		debug      bool
	)

	flag.BoolVar(&login, "login", false, "Log in to Linear")
	flag.BoolVar(&logout, "logout", false, "Log out and delete the stored session")
	flag.BoolVar(&whoami, "whoami", false, "Show the authenticated user")
	flag.BoolVar(&listIssues, "issues", false, "List recently updated issues")
	flag.StringVar(&flowName, "flow", "", "Login flow: browser, manual, api-key, client-credentials")
	flag.StringVar(&apiKey, "api-key", "", "Personal API key for the api-key flow")
	flag.BoolVar(&noBrowser, "no-browser", false, "Don't open the browser automatically")
	flag.BoolVar(&portRange, "port-range", false, "Bind the loopback listener within the fixed port range instead of an ephemeral port")
	flag.IntVar(&issueCount, "limit", 20, "Number of issues to list")
	flag.StringVar(&profile, "profile", "", "Credential profile to operate on")
	flag.StringVar(&configPath, "config", "", "Configuration file path")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if debug {
		logging.SetDebug()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, runOptions{
		login:      login,
		logout:     logout,
		whoami:     whoami,
		listIssues: listIssues,
		flowName:   flowName,
		apiKey:     apiKey,
		noBrowser:  noBrowser,
		portRange:  portRange,
		issueCount: issueCount,
		profile:    profile,
		configPath: configPath,
	}); err != nil {
		fmt.Fprintln(os.Stderr, auth.UserFriendlyMessage(err))
		os.Exit(1)
	}
}

type runOptions struct {
	login      bool
	logout     bool
	whoami     bool
	listIssues bool
	flowName   string
	apiKey     string
	noBrowser  bool
	portRange  bool
	issueCount int
	profile    string
	configPath string
}

func run(ctx context.Context, opts runOptions) error {
	locator, err := config.NewLocator()
	if err != nil {
		return err
	}

	path := opts.configPath
	if path == "" {
		path = locator.ConfigFile()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if opts.profile != "" {
		cfg.Profile = opts.profile
	}
	if opts.flowName != "" {
		cfg.AuthFlow = opts.flowName
	}
	if opts.noBrowser {
		cfg.NoBrowser = true
	}
	if err = logging.ConfigureFileOutput(cfg.LogDir); err != nil {
		return err
	}

	oauthConfig := auth.OAuthConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
	}
	if oauthConfig.RedirectURI == "" {
		oauthConfig.RedirectURI = auth.DefaultRedirectURI(auth.DefaultRedirectPortStart)
	}
	oauthClient, err := auth.NewOAuthClient(oauthConfig)
	if err != nil {
		return err
	}

	store := auth.NewFileCredentialStore(locator.Root())
	manager := auth.NewAuthManager(store, oauthClient, cfg.Profile)

	switch {
	case opts.login:
		return runLogin(ctx, manager, cfg, opts)
	case opts.logout:
		if err = manager.Logout(); err != nil {
			return err
		}
		fmt.Printf("Logged out of profile %q.\n", cfg.Profile)
		return nil
	case opts.whoami:
		return runWhoami(ctx, manager, cfg)
	case opts.listIssues:
		return runIssues(ctx, manager, cfg, opts.issueCount)
	default:
		flag.Usage()
		return nil
	}
}

// resolveFlow picks the login flow: an explicit override from the flag or
// config wins, otherwise environment detection decides.
func resolveFlow(cfg *config.Config) (auth.AuthFlow, bool, error) {
	if cfg.AuthFlow != "" {
		flow, err := auth.ParseAuthFlow(cfg.AuthFlow)
		if err != nil {
			return 0, false, err
		}
		return flow, flow == auth.FlowBrowser && !cfg.NoBrowser, nil
	}

	pref := auth.DetectFlowPreference()
	openBrowser := pref.BrowserAvailable && !cfg.NoBrowser
	return pref.Preferred, openBrowser, nil
}

func runLogin(ctx context.Context, manager *auth.AuthManager, cfg *config.Config, opts runOptions) error {
	flow, openBrowser, err := resolveFlow(cfg)
	if err != nil {
		return err
	}
	log.Debugf("using %s login flow", flow)

	notify := func(authURL string) error {
		fmt.Printf("Open this URL to authorize linearctl:\n\n  %s\n\n", authURL)
		return nil
	}

	var session *auth.AuthSession
	switch flow {
	case auth.FlowBrowser:
		if opts.portRange {
			session, err = manager.AuthenticateBrowserPortRange(ctx, auth.DefaultRedirectPortStart, auth.DefaultRedirectPortEnd, openBrowser, notify)
		} else {
			session, err = manager.AuthenticateBrowser(ctx, openBrowser, notify)
		}
		// Port exhaustion and browser launch failures are recoverable by
		// pasting the redirect instead; the fallback is explicit here, not
		// hidden inside the flow.
		if err != nil && auth.IsFlowFallbackError(err) {
			log.Warnf("browser flow unavailable (%v), falling back to manual flow", err)
			session, err = manager.AuthenticateManual(ctx, false, notify, readRedirectLine)
		}
	case auth.FlowManual:
		session, err = manager.AuthenticateManual(ctx, openBrowser, notify, readRedirectLine)
	case auth.FlowAPIKey:
		key := opts.apiKey
		if key == "" {
			fmt.Print("Paste your Linear API key: ")
			if key, err = readLine(ctx); err != nil {
				return err
			}
			key = strings.TrimSpace(key)
		}
		if key == "" {
			return fmt.Errorf("API key must not be empty")
		}
		session, err = manager.AuthenticateAPIKey(key)
	case auth.FlowClientCredentials:
		session, err = manager.AuthenticateClientCredentials(ctx, cfg.Scopes)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Logged in to profile %q with a %s session.\n", cfg.Profile, session.TokenType)
	return nil
}

func runWhoami(ctx context.Context, manager *auth.AuthManager, cfg *config.Config) error {
	client, err := apiClient(ctx, manager, cfg)
	if err != nil {
		return err
	}
	viewer, err := client.Viewer(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\n", viewer.Name, viewer.Email)
	return nil
}

func runIssues(ctx context.Context, manager *auth.AuthManager, cfg *config.Config, limit int) error {
	client, err := apiClient(ctx, manager, cfg)
	if err != nil {
		return err
	}
	issues, err := client.Issues(ctx, limit)
	if err != nil {
		return err
	}
	for _, issue := range issues {
		fmt.Printf("%-10s %-12s %s\n", issue.Identifier, issue.State, issue.Title)
	}
	return nil
}

// apiClient obtains a fresh session and builds a GraphQL client around it.
func apiClient(ctx context.Context, manager *auth.AuthManager, cfg *config.Config) (*linear.Client, error) {
	session, err := manager.EnsureFreshSession(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errNotLoggedIn
	}
	if cfg.APIEndpoint != "" {
		return linear.NewClientWithEndpoint(session, cfg.APIEndpoint), nil
	}
	return linear.NewClient(session), nil
}

// readRedirectLine prompts for and reads the pasted redirect URL or code.
func readRedirectLine(ctx context.Context) (string, error) {
	fmt.Print("Paste the redirect URL or authorization code: ")
	return readLine(ctx)
}

// readLine reads one line from stdin without blocking context cancellation.
func readLine(ctx context.Context) (string, error) {
	type lineResult struct {
		line string
		err  error
	}
	resultCh := make(chan lineResult, 1)
	go func() {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		resultCh <- lineResult{line: strings.TrimRight(line, "\r\n"), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case result := <-resultCh:
		if result.err != nil {
			return "", fmt.Errorf("failed to read input: %w", result.err)
		}
		return result.line, nil
	}
}
