package auth

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openBrowser launches the system browser for the given URL.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}
	// Detach: the browser outlives the command and we never wait on it.
	return cmd.Process.Release()
}
