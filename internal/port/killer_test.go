package port

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/devserve/internal/model"
)

// TestSignalKiller_KillsChild starts a sleeping child process and verifies
// it is terminated by SIGKILL.
func TestSignalKiller_KillsChild(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	require.NoError(t, cmd.Start())

	killer := NewSignalKiller()
	require.NoError(t, killer.Kill(cmd.Process.Pid))

	err := cmd.Wait()
	require.Error(t, err, "killed process should not exit cleanly")

	// The child is reaped now, so a second kill finds no such process.
	assert.ErrorIs(t, killer.Kill(cmd.Process.Pid), model.ErrProcessNotFound)
}

// TestSignalKiller_RejectsGroupPIDs verifies PIDs that would signal process
// groups are refused.
func TestSignalKiller_RejectsGroupPIDs(t *testing.T) {
	killer := NewSignalKiller()
	assert.Error(t, killer.Kill(0))
	assert.Error(t, killer.Kill(-1))
}
