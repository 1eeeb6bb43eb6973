package hosts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/devserve/internal/model"
)

// countingWriter appends through FileWriter and counts calls, standing in
// for the privileged channel.
type countingWriter struct {
	calls int
	lines [][]string
	err   error
}

func (w *countingWriter) Append(ctx context.Context, path string, lines []string) error {
	w.calls++
	w.lines = append(w.lines, lines)
	if w.err != nil {
		return w.err
	}
	return FileWriter{}.Append(ctx, path, lines)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// writeHosts creates a temporary hosts file with the given content.
func writeHosts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readHosts(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// TestEnsure_EmptyFileDual verifies both families are appended together in
// a single write.
func TestEnsure_EmptyFileDual(t *testing.T) {
	path := writeHosts(t, "")
	w := &countingWriter{}
	r := NewReconciler(path, model.PolicyDual, w, nopLogger{})

	result := r.Ensure(context.Background(), "dev.local")

	assert.True(t, result.OK)
	assert.True(t, result.Changed())
	assert.False(t, result.HasFamily(model.FamilyIPv4))
	assert.False(t, result.HasFamily(model.FamilyIPv6))
	assert.Equal(t, 1, w.calls, "both lines must go in one privileged write")
	assert.Equal(t, "127.0.0.1       dev.local\n::1             dev.local\n", readHosts(t, path))
}

// TestEnsure_Idempotent verifies a second run appends nothing.
func TestEnsure_Idempotent(t *testing.T) {
	path := writeHosts(t, "")
	w := &countingWriter{}
	r := NewReconciler(path, model.PolicyDual, w, nopLogger{})

	first := r.Ensure(context.Background(), "dev.local")
	second := r.Ensure(context.Background(), "dev.local")

	assert.True(t, first.Changed())
	assert.True(t, second.OK)
	assert.False(t, second.Changed())
	assert.Equal(t, 1, w.calls, "exactly one append across both runs")
	assert.True(t, second.HasFamily(model.FamilyIPv4))
	assert.True(t, second.HasFamily(model.FamilyIPv6))
}

// TestEnsure_OnlyIPv6Missing verifies that an existing IPv4 entry is left
// untouched and only the IPv6 line is appended.
func TestEnsure_OnlyIPv6Missing(t *testing.T) {
	path := writeHosts(t, "127.0.0.1 example.test\n")
	w := &countingWriter{}
	r := NewReconciler(path, model.PolicyDual, w, nopLogger{})

	result := r.Ensure(context.Background(), "example.test")

	require.True(t, result.OK)
	assert.True(t, result.HasFamily(model.FamilyIPv4))
	assert.False(t, result.HasFamily(model.FamilyIPv6))
	require.Len(t, result.Added, 1)
	assert.Equal(t, model.FamilyIPv6, result.Added[0].Family)
	assert.Equal(t, [][]string{{"::1             example.test"}}, w.lines)
	assert.Equal(t, "127.0.0.1 example.test\n::1             example.test\n", readHosts(t, path))
}

// TestEnsure_WriteFails verifies a failed privileged write is reported as
// overall failure rather than returned as an error.
func TestEnsure_WriteFails(t *testing.T) {
	path := writeHosts(t, "")
	w := &countingWriter{err: errors.New("exit status 1")}
	r := NewReconciler(path, model.PolicyDual, w, nopLogger{})

	result := r.Ensure(context.Background(), "dev.local")

	assert.False(t, result.OK)
	assert.False(t, result.Changed())
	assert.Equal(t, "http://localhost:8888", model.ServingURL(result, 8888))
	assert.Equal(t, "", readHosts(t, path))
}

// TestEnsure_UnreadableFile verifies a read failure is treated as "not
// configured" and the write is still attempted.
func TestEnsure_UnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-hosts")
	w := &countingWriter{err: errors.New("permission denied")}
	r := NewReconciler(path, model.PolicyDual, w, nopLogger{})

	result := r.Ensure(context.Background(), "dev.local")

	assert.Equal(t, 1, w.calls, "write must be attempted after a read failure")
	assert.False(t, result.OK)
	require.Len(t, w.lines, 1)
	assert.Len(t, w.lines[0], 2)
}

// TestEnsure_SinglePolicy verifies the IPv4-only variant.
func TestEnsure_SinglePolicy(t *testing.T) {
	t.Run("appends ipv4 only", func(t *testing.T) {
		path := writeHosts(t, "::1 localhost\n")
		w := &countingWriter{}
		r := NewReconciler(path, model.PolicySingle, w, nopLogger{})

		result := r.Ensure(context.Background(), "dev.local")

		assert.True(t, result.OK)
		require.Len(t, result.Added, 1)
		assert.Equal(t, model.FamilyIPv4, result.Added[0].Family)
		assert.NotContains(t, result.Present, model.FamilyIPv6)
	})

	t.Run("any mapping counts", func(t *testing.T) {
		path := writeHosts(t, "::1 dev.local\n")
		w := &countingWriter{}
		r := NewReconciler(path, model.PolicySingle, w, nopLogger{})

		result := r.Ensure(context.Background(), "dev.local")

		assert.True(t, result.OK)
		assert.False(t, result.Changed())
		assert.Equal(t, 0, w.calls)
	})
}

// TestEnsure_MissingTrailingNewline verifies the previous last line is
// terminated before new entries are appended.
func TestEnsure_MissingTrailingNewline(t *testing.T) {
	path := writeHosts(t, "127.0.0.1 localhost")
	r := NewReconciler(path, model.PolicyDual, &countingWriter{}, nopLogger{})

	result := r.Ensure(context.Background(), "dev.local")
	require.True(t, result.OK)

	lines := strings.Split(strings.TrimRight(readHosts(t, path), "\n"), "\n")
	assert.Equal(t, []string{
		"127.0.0.1 localhost",
		"127.0.0.1       dev.local",
		"::1             dev.local",
	}, lines)
}

// TestEnsure_EmptyDomain verifies reconciliation is skipped entirely.
func TestEnsure_EmptyDomain(t *testing.T) {
	w := &countingWriter{}
	r := NewReconciler(filepath.Join(t.TempDir(), "hosts"), model.PolicyDual, w, nopLogger{})

	result := r.Ensure(context.Background(), "")

	assert.True(t, result.Skipped)
	assert.False(t, result.Changed())
	assert.Equal(t, 0, w.calls)
}

func TestCheck(t *testing.T) {
	path := writeHosts(t, "127.0.0.1 dev.local\n")
	r := NewReconciler(path, model.PolicyDual, &countingWriter{}, nopLogger{})

	present, err := r.Check("dev.local")
	require.NoError(t, err)
	assert.Equal(t, map[model.AddressFamily]bool{
		model.FamilyIPv4: true,
		model.FamilyIPv6: false,
	}, present)

	missing := NewReconciler(filepath.Join(t.TempDir(), "nope"), model.PolicyDual, &countingWriter{}, nopLogger{})
	present, err = missing.Check("dev.local")
	assert.Error(t, err)
	assert.False(t, present[model.FamilyIPv4])
}

func TestNewReconciler_InvalidPolicy(t *testing.T) {
	r := NewReconciler("/etc/hosts", "bogus", FileWriter{}, nopLogger{})
	assert.Equal(t, model.PolicyDual, r.policy)
}

// TestEnsure_Cancelled verifies nothing is written once the context is
// cancelled.
func TestEnsure_Cancelled(t *testing.T) {
	path := writeHosts(t, "")
	w := &countingWriter{}
	r := NewReconciler(path, model.PolicyDual, w, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := r.Ensure(ctx, "dev.local")

	assert.Zero(t, w.calls)
	assert.False(t, result.OK)
	assert.False(t, result.Changed())
	assert.Empty(t, readHosts(t, path))
}
