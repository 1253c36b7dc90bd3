package auth

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Environment variables consulted by flow preference detection.
const (
	// EnvAuthFlow names an explicit flow override (browser, manual, api-key,
	// client-credentials). An explicit override wins outright.
	EnvAuthFlow = "LINEARCTL_AUTH_FLOW"
	// EnvNoBrowser, when set to anything, forces the browser unavailable.
	EnvNoBrowser = "LINEARCTL_NO_BROWSER"
)

// AuthFlow enumerates the interchangeable login flows.
type AuthFlow int

const (
	// FlowBrowser is the interactive loopback redirect flow.
	FlowBrowser AuthFlow = iota
	// FlowManual is the copy/paste redirect flow.
	FlowManual
	// FlowAPIKey stores a static personal API key.
	FlowAPIKey
	// FlowClientCredentials is the machine-to-machine grant.
	FlowClientCredentials
)

// ParseAuthFlow parses a free-text flow override.
func ParseAuthFlow(value string) (AuthFlow, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "browser":
		return FlowBrowser, nil
	case "manual", "code":
		return FlowManual, nil
	case "api-key", "apikey", "key":
		return FlowAPIKey, nil
	case "client", "client-credentials", "cc":
		return FlowClientCredentials, nil
	default:
		return FlowBrowser, fmt.Errorf("invalid auth flow %q", value)
	}
}

// String renders the canonical flow name.
func (f AuthFlow) String() string {
	switch f {
	case FlowBrowser:
		return "browser"
	case FlowManual:
		return "manual"
	case FlowAPIKey:
		return "api-key"
	case FlowClientCredentials:
		return "client-credentials"
	default:
		return "unknown"
	}
}

// FlowPreference is the derived recommendation for which flow to start with
// and whether auto-launching a browser is safe. It is never persisted.
type FlowPreference struct {
	Preferred        AuthFlow
	BrowserAvailable bool
}

// DetectFlowPreference inspects environment signals to recommend a flow.
// An explicit flow override wins outright; otherwise browser availability
// decides between the browser and manual flows.
func DetectFlowPreference() FlowPreference {
	if value := os.Getenv(EnvAuthFlow); value != "" {
		if flow, err := ParseAuthFlow(value); err == nil {
			return FlowPreference{
				Preferred:        flow,
				BrowserAvailable: flow == FlowBrowser,
			}
		}
	}

	available := browserAvailable()
	preferred := FlowManual
	if available {
		preferred = FlowBrowser
	}
	return FlowPreference{Preferred: preferred, BrowserAvailable: available}
}

// browserAvailable applies the environment heuristics in priority order:
// the no-browser override, SSH sessions without a display, graphical display
// variables, then a per-OS fallback for desktop systems.
func browserAvailable() bool {
	if _, ok := os.LookupEnv(EnvNoBrowser); ok {
		return false
	}

	_, ssh := os.LookupEnv("SSH_CONNECTION")
	_, display := os.LookupEnv("DISPLAY")
	if ssh && !display {
		return false
	}

	if display {
		return true
	}
	if _, ok := os.LookupEnv("WAYLAND_DISPLAY"); ok {
		return true
	}

	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}
