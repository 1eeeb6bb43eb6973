package model

import (
	"context"
	"errors"
)

// ErrProcessNotFound is returned by a ProcessKiller when the target process
// has already exited. The reaper treats it as success.
var ErrProcessNotFound = errors.New("no such process")

// ProcessInspector lists the processes listening on a TCP port.
// Identifiers are returned as the raw tokens the OS reported; the caller
// parses them and skips malformed ones.
type ProcessInspector interface {
	ListeningPIDs(ctx context.Context, port int) ([]string, error)
}

// ProcessKiller forcibly terminates a process.
type ProcessKiller interface {
	Kill(pid int) error
}

// ContainerStopper stops containers that publish a host port, returning the
// names of the containers it stopped.
type ContainerStopper interface {
	StopPublishing(ctx context.Context, port int) ([]string, error)
}

// PrivilegedWriter appends lines to a file that requires elevated privilege
// to modify. A non-nil error means the write did not happen.
type PrivilegedWriter interface {
	Append(ctx context.Context, path string, lines []string) error
}

// CacheFlusher runs one privileged resolver-cache command.
type CacheFlusher interface {
	Run(ctx context.Context, argv []string) error
}

// BrowserOpener opens a URL in a browser. private requests a
// private/incognito window where the browser supports it.
type BrowserOpener interface {
	Open(ctx context.Context, url string, private bool) error
}

// Logger provides leveled key/value logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
