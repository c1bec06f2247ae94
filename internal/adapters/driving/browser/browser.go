// Package browser opens verification pages during interactive login.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Command returns the launcher command for goos, or an error when the
// platform has no known launcher.
func Command(goos, url string) (name string, args []string, err error) {
	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// Open opens url in the default browser without waiting for it to exit.
func Open(url string) error {
	name, args, err := Command(runtime.GOOS, url)
	if err != nil {
		return err
	}
	return exec.Command(name, args...).Start() //nolint:gosec // url comes from the identity provider
}
