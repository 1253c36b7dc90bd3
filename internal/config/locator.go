// Package config resolves the per-user configuration directory and loads the
// application configuration from a YAML file overlaid with environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// appDirName is the directory created under the platform user config root.
const appDirName = "linearctl"

// Locator holds the resolved per-user configuration directory. It is
// produced once at startup and threaded into the credential store and
// config loader explicitly, so tests can substitute an arbitrary directory.
type Locator struct {
	root string
}

// NewLocator discovers the user configuration directory, creating it with
// owner-only permissions on first use.
func NewLocator() (*Locator, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("unable to determine user configuration directory: %w", err)
	}
	return NewLocatorAt(filepath.Join(base, appDirName))
}

// NewLocatorAt roots a locator at an explicit directory, creating it with
// owner-only permissions if missing.
func NewLocatorAt(root string) (*Locator, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create configuration directory: %w", err)
	}
	if err := os.Chmod(root, 0o700); err != nil {
		return nil, fmt.Errorf("failed to restrict configuration directory permissions: %w", err)
	}
	return &Locator{root: root}, nil
}

// Root returns the configuration directory. Credential files live directly
// under it.
func (l *Locator) Root() string {
	return l.root
}

// ConfigFile returns the path of the YAML configuration file.
func (l *Locator) ConfigFile() string {
	return filepath.Join(l.root, "config.yaml")
}
