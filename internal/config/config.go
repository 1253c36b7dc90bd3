package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration shaping the OAuth client and CLI
// behaviour. Values come from the YAML config file when present, with
// environment variables taking precedence.
type Config struct {
	// ClientID is the registered OAuth application ID.
	ClientID string `yaml:"client-id" env:"LINEARCTL_CLIENT_ID"`

	// ClientSecret is optional; public clients leave it empty.
	ClientSecret string `yaml:"client-secret" env:"LINEARCTL_CLIENT_SECRET"`

	// RedirectURI overrides the loopback redirect URI. Leave empty to let
	// the browser flow derive one from the bound port.
	RedirectURI string `yaml:"redirect-uri" env:"LINEARCTL_REDIRECT_URI"`

	// Scopes are the requested access scopes.
	Scopes []string `yaml:"scopes" env:"LINEARCTL_SCOPES" envSeparator:" "`

	// AuthFlow forces a specific login flow (browser, manual, api-key,
	// client-credentials) instead of detecting one.
	AuthFlow string `yaml:"auth-flow" env:"LINEARCTL_AUTH_FLOW"`

	// NoBrowser disables automatic browser launching.
	NoBrowser bool `yaml:"no-browser" env:"LINEARCTL_NO_BROWSER"`

	// Profile names the credential set to operate on.
	Profile string `yaml:"profile" env:"LINEARCTL_PROFILE"`

	// LogDir, when set, routes logs to rotating files in that directory.
	LogDir string `yaml:"log-dir" env:"LINEARCTL_LOG_DIR"`

	// APIEndpoint overrides the GraphQL endpoint, for testing.
	APIEndpoint string `yaml:"api-endpoint" env:"LINEARCTL_API_ENDPOINT"`
}

// defaultConfig returns the baseline configuration for the public client.
func defaultConfig() *Config {
	return &Config{
		ClientID: "linearctl-public",
		Scopes:   []string{"read", "write"},
		Profile:  "default",
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path when it exists, then environment variable overrides. A missing file
// is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if errUnmarshal := yaml.Unmarshal(raw, cfg); errUnmarshal != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, errUnmarshal)
		}
	case os.IsNotExist(err):
		// First run; defaults plus environment are enough.
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err = env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment configuration: %w", err)
	}

	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID must not be empty")
	}
	if cfg.Profile == "" {
		cfg.Profile = "default"
	}
	return cfg, nil
}
