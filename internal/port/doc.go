// Package port reclaims a TCP port for the devserve listener.
//
// The Reaper finds every process listening on the port, force-kills it and
// polls until the OS reports the port free or a small retry budget runs out.
// Reclamation is best-effort: nothing in this package returns an error to
// the orchestrator, every failure is logged and the sequence moves on.
//
// Listener discovery shells out to lsof, termination uses kill(2) via
// golang.org/x/sys/unix, and the poll loop is driven by
// github.com/cenkalti/backoff. The Scanner probes bindability directly with
// net.Listen for the read-only status report.
package port
