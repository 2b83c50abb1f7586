package shared

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser opens the system browser at rawURL.
//
// $BROWSER wins when set; otherwise the platform opener is used (macOS, Linux, Windows).
func OpenBrowser(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: refusing to open %q", ErrInvalidArgument, rawURL)
	}

	var cmd *exec.Cmd
	if b := os.Getenv("BROWSER"); b != "" {
		cmd = exec.Command(b, rawURL)
	} else {
		switch rt := getRuntime(); rt {
		case "darwin":
			cmd = exec.Command("open", rawURL)
		case "linux", "freebsd", "openbsd":
			cmd = exec.Command("xdg-open", rawURL)
		case "windows":
			cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
		default:
			return fmt.Errorf("unsupported platform: %s", rt)
		}
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
