package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ClientID != "linearctl-public" {
		t.Errorf("client ID = %q, want linearctl-public", cfg.ClientID)
	}
	if got := strings.Join(cfg.Scopes, ","); got != "read,write" {
		t.Errorf("scopes = %q, want read,write", got)
	}
	if cfg.Profile != "default" {
		t.Errorf("profile = %q, want default", cfg.Profile)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `client-id: my-app
scopes:
  - read
auth-flow: manual
profile: work
no-browser: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ClientID != "my-app" {
		t.Errorf("client ID = %q, want my-app", cfg.ClientID)
	}
	if len(cfg.Scopes) != 1 || cfg.Scopes[0] != "read" {
		t.Errorf("scopes = %v, want [read]", cfg.Scopes)
	}
	if cfg.AuthFlow != "manual" {
		t.Errorf("auth flow = %q, want manual", cfg.AuthFlow)
	}
	if cfg.Profile != "work" {
		t.Errorf("profile = %q, want work", cfg.Profile)
	}
	if !cfg.NoBrowser {
		t.Error("no-browser = false, want true")
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("client-id: from-file\nprofile: from-file\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("LINEARCTL_CLIENT_ID", "from-env")
	t.Setenv("LINEARCTL_SCOPES", "read write admin")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ClientID != "from-env" {
		t.Errorf("client ID = %q, want the environment override", cfg.ClientID)
	}
	if got := strings.Join(cfg.Scopes, ","); got != "read,write,admin" {
		t.Errorf("scopes = %q, want read,write,admin", got)
	}
	if cfg.Profile != "from-file" {
		t.Errorf("profile = %q, want the file value to survive", cfg.Profile)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("client-id: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() error = nil for malformed YAML, want an error")
	}
}

func TestLoadRejectsEmptyClientID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`client-id: ""`), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() error = nil for an empty client ID, want an error")
	}
}

func TestLocatorCreatesRestrictedDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "linearctl")
	locator, err := NewLocatorAt(root)
	if err != nil {
		t.Fatalf("NewLocatorAt() error = %v", err)
	}
	if locator.Root() != root {
		t.Errorf("Root() = %q, want %q", locator.Root(), root)
	}

	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("stat config dir: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o700 {
		t.Errorf("config dir mode = %o, want 700", mode)
	}
	if got := locator.ConfigFile(); got != filepath.Join(root, "config.yaml") {
		t.Errorf("ConfigFile() = %q, want config.yaml under the root", got)
	}
}
