package auth

import (
	"errors"
	"os/exec"
	"runtime"
)

// openBrowser launches the default system browser on url. Best effort: the
// caller treats a failure as "print the URL and keep waiting", never as a
// reason to abort the login.
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
	if cmd == nil {
		return errors.New("no browser command available")
	}
	return cmd.Start()
}
