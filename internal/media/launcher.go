// Package media opens links from imported events in the user's browser.
package media

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

var ErrUnsupportedLink = errors.New("unsupported link")

type Launcher struct {
	opener string
	goos   string
	start  func(*exec.Cmd) error
}

// NewLauncher uses opener, or the first platform opener found on PATH when
// opener is empty.
func NewLauncher(opener string) *Launcher {
	l := &Launcher{opener: opener, goos: runtime.GOOS, start: startDetached}
	if l.opener == "" {
		l.opener = findCommand(defaultOpeners(l.goos)...)
	}
	return l
}

func defaultOpeners(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32"}
	default:
		return []string{"xdg-open", "wslview", "sensible-browser", "firefox"}
	}
}

// Opener is the command Open runs, empty when none was found.
func (l *Launcher) Opener() string { return l.opener }

// Open starts the opener on link without waiting for it. Only http and https
// links are accepted.
func (l *Launcher) Open(link string) error {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrUnsupportedLink, link)
	}
	if l.opener == "" {
		return errors.New("no application found to open links")
	}
	return l.start(l.command(u.String()))
}

func (l *Launcher) command(link string) *exec.Cmd {
	if l.opener == "rundll32" {
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", link)
	}
	return exec.Command(l.opener, link)
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
