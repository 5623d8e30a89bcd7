package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var goos = func() string { return runtime.GOOS }

// OpenBrowser launches the user's default browser at url. The auth login
// flow uses it to hand the OAuth consent page off to the desktop.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch rt := goos(); rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("no browser launcher for platform %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
