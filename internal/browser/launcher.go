// Package browser opens the serving URL in a browser, optionally in a
// private window.
//
// Each browser/OS pair maps to a command line. Private mode is honoured
// only where a scripted invocation exists; otherwise the URL opens in a
// normal window and a warning is logged.
package browser

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/shinji-kodama/devserve/internal/model"
)

// runFunc executes argv. Replaced in tests.
type runFunc func(ctx context.Context, argv []string) error

// Launcher opens URLs in one configured browser.
type Launcher struct {
	browser model.Browser
	goos    string
	run     runFunc
	logger  model.Logger
}

// NewLauncher creates a Launcher for browser on the running OS.
func NewLauncher(browser model.Browser, logger model.Logger) *Launcher {
	return &Launcher{
		browser: browser,
		goos:    runtime.GOOS,
		run:     execRun,
		logger:  logger,
	}
}

// Open launches the browser at url. When private is requested but the
// browser has no scripted private window, the URL opens normally and a
// warning is logged.
func (l *Launcher) Open(ctx context.Context, url string, private bool) error {
	argv, privateOK := l.command(url, private)
	if private && !privateOK {
		l.logger.Warn("private browsing cannot be opened from the command line; opening in regular mode",
			"browser", l.browser)
	}

	if err := l.run(ctx, argv); err != nil {
		return fmt.Errorf("open %s in %s: %w", url, l.browser, err)
	}

	if private && privateOK {
		l.logger.Info("opened in private browsing", "browser", l.browser, "url", url)
	} else {
		l.logger.Info("opened browser", "browser", l.browser, "url", url)
	}
	return nil
}

// SupportsPrivate reports whether Open can honour private mode.
func (l *Launcher) SupportsPrivate() bool {
	_, ok := l.command("http://localhost", true)
	return ok
}

// command returns the argv that opens url, and whether it honours the
// private request.
func (l *Launcher) command(url string, private bool) ([]string, bool) {
	if l.goos == "darwin" {
		return darwinCommand(l.browser, url, private)
	}
	return xdgCommand(l.browser, url, private)
}

func darwinCommand(b model.Browser, url string, private bool) ([]string, bool) {
	switch b {
	case model.BrowserSafari:
		if private {
			return []string{"osascript", "-e", safariPrivateScript(url)}, true
		}
		return []string{"open", "-a", "Safari", url}, false
	case model.BrowserChrome:
		if private {
			return []string{"open", "-na", "Google Chrome", "--args", "--incognito", url}, true
		}
		return []string{"open", "-a", "Google Chrome", url}, false
	case model.BrowserFirefox:
		if private {
			return []string{"open", "-na", "Firefox", "--args", "--private-window", url}, true
		}
		return []string{"open", "-a", "Firefox", url}, false
	default:
		return []string{"open", url}, false
	}
}

func xdgCommand(b model.Browser, url string, private bool) ([]string, bool) {
	switch b {
	case model.BrowserChrome:
		if private {
			return []string{"google-chrome", "--incognito", url}, true
		}
		return []string{"google-chrome", url}, false
	case model.BrowserFirefox:
		if private {
			return []string{"firefox", "--private-window", url}, true
		}
		return []string{"firefox", url}, false
	default:
		// Safari only exists on macOS; the default handler is the closest.
		return []string{"xdg-open", url}, false
	}
}

// safariPrivateScript opens a private Safari window (Cmd+Shift+N) and
// points it at url.
func safariPrivateScript(url string) string {
	return fmt.Sprintf(`tell application "Safari"
	activate
	tell application "System Events"
		keystroke "n" using {command down, shift down}
	end tell
	delay 0.5
	set URL of document 1 to %s
end tell`, appleScriptString(url))
}

// appleScriptString quotes s as an AppleScript string literal.
func appleScriptString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

func execRun(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", argv[0], err, msg)
		}
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}
