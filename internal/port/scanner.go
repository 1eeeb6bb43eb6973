package port

import (
	"fmt"
	"net"
)

// Scanner checks whether a port can be bound on the host machine.
//
// It asks the OS directly with net.Listen rather than parsing lsof output,
// so the answer matches what the HTTP listener will see.
type Scanner struct {
	// host is the bind address probed, e.g. "0.0.0.0".
	host string
}

// NewScanner creates a Scanner that probes the given bind address.
func NewScanner(host string) *Scanner {
	return &Scanner{host: host}
}

// IsPortAvailable reports whether a TCP listener could bind host:port right
// now. The probe listener is closed immediately.
func (s *Scanner) IsPortAvailable(port int) bool {
	listener, err := net.Listen("tcp", net.JoinHostPort(s.host, fmt.Sprint(port)))
	if err != nil {
		return false
	}
	defer func() { _ = listener.Close() }()
	return true
}
