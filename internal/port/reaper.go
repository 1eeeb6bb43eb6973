package port

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/shinji-kodama/devserve/internal/model"
)

const (
	// DefaultSettleDelay is how long the reaper waits after killing listeners
	// before it starts polling, giving the OS time to release the socket.
	DefaultSettleDelay = 1 * time.Second

	// DefaultPollInterval is the fixed delay between listener polls.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultPollAttempts is the number of listener queries made after the
	// settle delay before the reaper gives up.
	DefaultPollAttempts = 5
)

// errPortBusy keeps the poll loop retrying while listeners remain.
var errPortBusy = errors.New("port still has listeners")

// Report summarizes one reclamation. It is informational only; the
// orchestrator never branches on it.
type Report struct {
	// Port is the port that was reclaimed.
	Port int

	// StoppedContainers names the Docker containers stopped because they
	// published Port.
	StoppedContainers []string

	// Killed lists the process IDs that were sent SIGKILL, in the order the
	// inspector reported them.
	Killed []int

	// Polls is the number of listener queries made after the settle delay.
	Polls int

	// Free is true when the last query found no listeners.
	Free bool
}

// Reaper frees a TCP port by terminating whatever listens on it.
//
// The inspector and killer are injected so tests can drive the algorithm
// with fakes instead of real processes.
type Reaper struct {
	inspector model.ProcessInspector
	killer    model.ProcessKiller
	stopper   model.ContainerStopper
	logger    model.Logger

	// self is this process's PID; the reaper never kills itself.
	self int

	// SettleDelay, PollInterval and PollAttempts control the wait after
	// killing. They default to 1s, 0.5s and 5.
	SettleDelay  time.Duration
	PollInterval time.Duration
	PollAttempts int
}

// NewReaper creates a Reaper with the default timing.
func NewReaper(inspector model.ProcessInspector, killer model.ProcessKiller, logger model.Logger) *Reaper {
	return &Reaper{
		inspector:    inspector,
		killer:       killer,
		logger:       logger,
		self:         os.Getpid(),
		SettleDelay:  DefaultSettleDelay,
		PollInterval: DefaultPollInterval,
		PollAttempts: DefaultPollAttempts,
	}
}

// SetContainerStopper enables stopping containers that publish the port
// before listeners are killed. Killing the Docker port proxy directly would
// leave the container running and, on Docker Desktop, take the whole engine
// down with it.
func (r *Reaper) SetContainerStopper(stopper model.ContainerStopper) {
	r.stopper = stopper
}

// Reclaim makes a best-effort attempt to free port.
//
// Algorithm:
//  1. Stop containers publishing the port, if a ContainerStopper is set.
//  2. Query the listeners. None: the port is already free, return.
//  3. SIGKILL each distinct PID. Malformed PIDs and processes that already
//     exited are skipped.
//  4. Wait SettleDelay, then poll up to PollAttempts times, PollInterval
//     apart, stopping at the first empty query.
//
// A port still occupied after the budget is only logged. The bind that
// follows is what surfaces the problem to the user.
func (r *Reaper) Reclaim(ctx context.Context, port int) Report {
	report := Report{Port: port}

	report.StoppedContainers = r.stopContainers(ctx, port)

	pids, err := r.listeners(ctx, port)
	if err != nil {
		// Nothing to kill, but the port's state is unknown.
		r.logger.Warn("could not inspect port listeners", "port", port, "err", err)
		return report
	}
	if len(pids) == 0 {
		report.Free = true
		if len(report.StoppedContainers) == 0 {
			r.logger.Debug("port is already free", "port", port)
		}
		return report
	}

	report.Killed = r.killAll(port, pids)

	r.logger.Debug("waiting for port to be released", "port", port)
	if !sleep(ctx, r.SettleDelay) {
		return report
	}

	report.Free, report.Polls = r.poll(ctx, port)
	if report.Free {
		r.logger.Debug("port is now free", "port", port)
	} else {
		r.logger.Warn("port still in use after reclaim", "port", port, "polls", report.Polls)
	}
	return report
}

// Kill sends SIGKILL to the current listeners without waiting for the port
// to be released. It is the last resort after an address-in-use bind error.
func (r *Reaper) Kill(ctx context.Context, port int) []int {
	pids, err := r.listeners(ctx, port)
	if err != nil {
		r.logger.Warn("could not inspect port listeners", "port", port, "err", err)
		return nil
	}
	return r.killAll(port, pids)
}

// stopContainers asks the ContainerStopper to stop containers publishing
// port. Docker being unavailable is normal on many hosts, so failures are
// only visible in verbose mode.
func (r *Reaper) stopContainers(ctx context.Context, port int) []string {
	if r.stopper == nil {
		return nil
	}
	names, err := r.stopper.StopPublishing(ctx, port)
	if err != nil {
		r.logger.Debug("skipping docker container check", "port", port, "err", err)
		return nil
	}
	for _, name := range names {
		r.logger.Debug("stopped container publishing port", "container", name, "port", port)
	}
	return names
}

// listeners queries the inspector and converts the raw identifiers into
// distinct, positive PIDs other than our own.
func (r *Reaper) listeners(ctx context.Context, port int) ([]int, error) {
	raw, err := r.inspector.ListeningPIDs(ctx, port)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(raw))
	pids := make([]int, 0, len(raw))
	for _, token := range raw {
		pid, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil || pid <= 0 {
			// kill(2) with 0 or a negative PID signals whole process groups.
			r.logger.Debug("skipping malformed process id", "pid", token)
			continue
		}
		if pid == r.self || seen[pid] {
			continue
		}
		seen[pid] = true
		pids = append(pids, pid)
	}
	return pids, nil
}

func (r *Reaper) killAll(port int, pids []int) []int {
	killed := make([]int, 0, len(pids))
	for _, pid := range pids {
		err := r.killer.Kill(pid)
		switch {
		case err == nil:
			r.logger.Debug("killed process", "pid", pid, "port", port)
			killed = append(killed, pid)
		case errors.Is(err, model.ErrProcessNotFound):
			// Exited between the query and the kill.
			r.logger.Debug("process already gone", "pid", pid)
		default:
			r.logger.Warn("could not kill process", "pid", pid, "port", port, "err", err)
		}
	}
	return killed
}

// poll re-queries the listeners until none remain or the attempt budget is
// spent. It returns whether the port ended up free and how many queries ran.
func (r *Reaper) poll(ctx context.Context, port int) (bool, int) {
	attempts := r.PollAttempts
	if attempts < 1 {
		attempts = 1
	}

	polls := 0
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.PollInterval), uint64(attempts-1)),
		ctx,
	)
	err := backoff.Retry(func() error {
		polls++
		pids, err := r.listeners(ctx, port)
		if err != nil {
			// An inspector failure says nothing about the port; keep polling.
			r.logger.Debug("listener poll failed", "port", port, "err", err)
			return errPortBusy
		}
		if len(pids) > 0 {
			return errPortBusy
		}
		return nil
	}, b)
	return err == nil, polls
}

// sleep waits for d or until ctx is cancelled. It reports whether the full
// delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
