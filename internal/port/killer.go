package port

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/shinji-kodama/devserve/internal/model"
)

// SignalKiller terminates processes with SIGKILL.
type SignalKiller struct{}

// NewSignalKiller creates a SignalKiller.
func NewSignalKiller() *SignalKiller {
	return &SignalKiller{}
}

// Kill sends SIGKILL to pid. ESRCH is translated to model.ErrProcessNotFound
// so callers can tell "already gone" apart from "not permitted".
func (k *SignalKiller) Kill(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("refusing to signal pid %d", pid)
	}
	err := unix.Kill(pid, unix.SIGKILL)
	if errors.Is(err, unix.ESRCH) {
		return model.ErrProcessNotFound
	}
	if err != nil {
		return fmt.Errorf("kill %d: %w", pid, err)
	}
	return nil
}
