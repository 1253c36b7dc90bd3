// Package browser opens URLs in the user's default web browser across
// platforms, with a probe used by flow preference detection.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

// linuxOpeners are tried in order on Linux when the generic opener fails.
var linuxOpeners = []string{"xdg-open", "x-www-browser", "www-browser", "firefox", "chromium", "google-chrome"}

// OpenURL opens the URL in the default browser, preferring the open-golang
// launcher and falling back to platform-specific commands.
func OpenURL(url string) error {
	err := open.Run(url)
	if err == nil {
		log.Debug("opened URL with generic launcher")
		return nil
	}
	log.Debugf("generic launcher failed: %v, trying platform command", err)
	return openPlatform(url)
}

// openPlatform launches the URL with an OS-specific command.
func openPlatform(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux":
		for _, opener := range linuxOpeners {
			if _, errLook := exec.LookPath(opener); errLook == nil {
				cmd = exec.Command(opener, url)
				break
			}
		}
		if cmd == nil {
			return fmt.Errorf("no suitable browser opener found on this system")
		}
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if errStart := cmd.Start(); errStart != nil {
		return fmt.Errorf("failed to start browser command: %w", errStart)
	}
	return nil
}

// IsAvailable reports whether a command exists to open a browser on this
// platform.
func IsAvailable() bool {
	switch runtime.GOOS {
	case "darwin":
		_, err := exec.LookPath("open")
		return err == nil
	case "windows":
		_, err := exec.LookPath("rundll32")
		return err == nil
	case "linux":
		for _, opener := range linuxOpeners {
			if _, err := exec.LookPath(opener); err == nil {
				return true
			}
		}
		return false
	default:
		return false
	}
}
