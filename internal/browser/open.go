// Package browser opens URLs in the user's default browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// command builds the opener invocation; replaced in tests.
var command = func(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}

// Open launches the default browser on rawURL without waiting for it.
func Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("refusing to open %q: not an http(s) url", rawURL)
	}

	name, args, err := opener(runtime.GOOS)
	if err != nil {
		return err
	}

	cmd := command(name, append(args, rawURL)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	// reap the child
	go func() { _ = cmd.Wait() }()
	return nil
}

func opener(goos string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", nil, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", nil, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}, nil
	default:
		return "", nil, fmt.Errorf("opening a browser is not supported on %s", goos)
	}
}
