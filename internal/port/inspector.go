package port

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// LsofInspector finds listening processes with lsof(8).
//
// Only sockets in the LISTEN state are reported, so a browser that still
// holds a connection to the old server is left alone.
type LsofInspector struct {
	// Path is the lsof binary. Empty means "lsof" from PATH.
	Path string
}

// NewLsofInspector creates an inspector that runs lsof from PATH.
func NewLsofInspector() *LsofInspector {
	return &LsofInspector{}
}

// ListeningPIDs runs `lsof -nP -t -iTCP:<port> -sTCP:LISTEN` and returns one
// token per output line. lsof exits 1 when nothing matches, which is
// reported as an empty result rather than an error.
func (i *LsofInspector) ListeningPIDs(ctx context.Context, port int) ([]string, error) {
	bin := i.Path
	if bin == "" {
		bin = "lsof"
	}

	cmd := exec.CommandContext(ctx, bin, "-nP", "-t", fmt.Sprintf("-iTCP:%d", port), "-sTCP:LISTEN")
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && len(bytes.TrimSpace(out)) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("lsof on port %d: %w", port, err)
	}

	return parseLsofOutput(out), nil
}

// parseLsofOutput splits terse lsof output (one PID per line) into tokens.
// Tokens are not validated here; the reaper skips malformed ones.
func parseLsofOutput(out []byte) []string {
	return strings.Fields(string(out))
}
