// Package resolver invalidates the operating system's DNS cache so a freshly
// appended hosts entry is visible without a restart.
package resolver

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/shinji-kodama/devserve/internal/model"
)

// DefaultCommands returns the flush commands for goos: a cache flush
// followed by a reload signal to the resolver daemon.
func DefaultCommands(goos string) [][]string {
	if goos == "darwin" {
		return [][]string{
			{"sudo", "dscacheutil", "-flushcache"},
			{"sudo", "killall", "-HUP", "mDNSResponder"},
		}
	}
	return [][]string{
		{"sudo", "resolvectl", "flush-caches"},
		{"sudo", "killall", "-HUP", "systemd-resolved"},
	}
}

// Invalidator runs each flush command once.
type Invalidator struct {
	commands [][]string
	runner   model.CacheFlusher
	logger   model.Logger
}

// NewInvalidator creates an Invalidator for the given commands.
func NewInvalidator(commands [][]string, runner model.CacheFlusher, logger model.Logger) *Invalidator {
	return &Invalidator{commands: commands, runner: runner, logger: logger}
}

// Flush runs every command independently. A failing command is logged and
// the next one still runs; nothing is retried. It returns how many commands
// succeeded.
func (i *Invalidator) Flush(ctx context.Context) int {
	i.logger.Debug("flushing DNS cache")
	ok, failed := 0, 0
	for _, argv := range i.commands {
		if len(argv) == 0 {
			continue
		}
		if err := i.runner.Run(ctx, argv); err != nil {
			i.logger.Warn("could not flush DNS cache", "cmd", strings.Join(argv, " "), "err", err)
			failed++
			continue
		}
		ok++
	}
	if failed == 0 {
		i.logger.Debug("DNS cache flushed")
	}
	return ok
}

// ExecRunner runs flush commands as child processes.
type ExecRunner struct{}

// Run executes argv and returns an error carrying its output when it exits
// non-zero.
func (ExecRunner) Run(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(out.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
