package hosts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/shinji-kodama/devserve/internal/model"
)

// NewWriter picks the cheapest channel that can append to path: a plain
// FileWriter when the current user can already write it, otherwise sudo.
func NewWriter(path string) model.PrivilegedWriter {
	if unix.Access(path, unix.W_OK) == nil {
		return FileWriter{}
	}
	return NewSudoWriter()
}

// SudoWriter appends to root-owned files.
//
// When the process already runs as root the file is opened with O_APPEND
// directly. Otherwise it runs `sudo tee -a <path>` with the lines on stdin;
// sudo prompts on the controlling terminal. The path travels as an argv
// element and the lines as stdin, never through a shell.
type SudoWriter struct {
	// SudoPath is the sudo binary. Empty means "sudo" from PATH.
	SudoPath string

	// euid returns the effective user ID; replaced in tests.
	euid func() int
}

// NewSudoWriter creates a SudoWriter.
func NewSudoWriter() *SudoWriter {
	return &SudoWriter{euid: os.Geteuid}
}

// Append writes lines, each newline-terminated, to the end of path.
func (w *SudoWriter) Append(ctx context.Context, path string, lines []string) error {
	payload := joinLines(lines)

	euid := w.euid
	if euid == nil {
		euid = os.Geteuid
	}
	if euid() == 0 {
		return appendFile(path, payload)
	}

	sudo := w.SudoPath
	if sudo == "" {
		sudo = "sudo"
	}

	cmd := exec.CommandContext(ctx, sudo, "tee", "-a", path)
	cmd.Stdin = strings.NewReader(payload)
	// tee echoes its input; only stderr is useful.
	cmd.Stdout = io.Discard
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s tee -a %s: %w: %s", sudo, path, err, msg)
		}
		return fmt.Errorf("%s tee -a %s: %w", sudo, path, err)
	}
	return nil
}

// FileWriter appends to a file the current user can already write. It is
// used for hosts files outside /etc, such as a per-project hosts file.
type FileWriter struct{}

// Append writes lines, each newline-terminated, to the end of path.
func (FileWriter) Append(_ context.Context, path string, lines []string) error {
	return appendFile(path, joinLines(lines))
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n") + "\n"
}

func appendFile(path, payload string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.WriteString(payload); err != nil {
		_ = f.Close()
		return fmt.Errorf("append to %s: %w", path, err)
	}
	return f.Close()
}
