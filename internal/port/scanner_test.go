package port

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIsPortAvailable_FreePort verifies that a port released by the OS is
// reported as available.
func TestIsPortAvailable_FreePort(t *testing.T) {
	// Let the OS pick a free port, then release it.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	scanner := NewScanner("127.0.0.1")
	assert.True(t, scanner.IsPortAvailable(port), "port %d should be available", port)
}

// TestIsPortAvailable_UsedPort verifies that IsPortAvailable returns false
// when a port is already bound by another listener.
func TestIsPortAvailable_UsedPort(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "failed to start test listener")
	defer func() { _ = listener.Close() }()

	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	require.True(t, ok)

	scanner := NewScanner("127.0.0.1")
	assert.False(t, scanner.IsPortAvailable(tcpAddr.Port),
		"port %d should be unavailable while the listener is open", tcpAddr.Port)
}

// TestIsPortAvailable_InvalidPort verifies out-of-range ports are never
// reported as available.
func TestIsPortAvailable_InvalidPort(t *testing.T) {
	scanner := NewScanner("127.0.0.1")
	assert.False(t, scanner.IsPortAvailable(70000))
}
