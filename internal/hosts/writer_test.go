package hosts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSudo writes a script that behaves like `sudo tee -a <path>`: it drops
// the "tee" argument and runs the rest of the command line.
func fakeSudo(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sudo")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestSudoWriter_Append(t *testing.T) {
	target := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(target, []byte("127.0.0.1 localhost\n"), 0o644))

	w := &SudoWriter{SudoPath: fakeSudo(t, `shift; exec tee "$@"`), euid: func() int { return 501 }}
	err := w.Append(context.Background(), target, []string{"::1 dev.local", "127.0.0.1 dev.local"})
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1 localhost\n::1 dev.local\n127.0.0.1 dev.local\n", string(data))
}

// TestSudoWriter_Denied verifies a non-zero exit from the privilege channel
// is reported with its stderr.
func TestSudoWriter_Denied(t *testing.T) {
	target := filepath.Join(t.TempDir(), "hosts")
	w := &SudoWriter{SudoPath: fakeSudo(t, `echo "sorry, try again" >&2; exit 1`), euid: func() int { return 501 }}

	err := w.Append(context.Background(), target, []string{"127.0.0.1 dev.local"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sorry, try again")
	assert.NoFileExists(t, target)
}

// TestSudoWriter_Root verifies root appends directly without sudo.
func TestSudoWriter_Root(t *testing.T) {
	target := filepath.Join(t.TempDir(), "hosts")
	w := &SudoWriter{SudoPath: "/nonexistent/sudo", euid: func() int { return 0 }}

	require.NoError(t, w.Append(context.Background(), target, []string{"127.0.0.1 dev.local"}))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1 dev.local\n", string(data))
}

func TestNewWriter(t *testing.T) {
	target := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(target, nil, 0o644))

	assert.IsType(t, FileWriter{}, NewWriter(target))
	assert.IsType(t, &SudoWriter{}, NewWriter(filepath.Join(t.TempDir(), "missing", "hosts")))
}
