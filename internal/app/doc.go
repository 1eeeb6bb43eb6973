// Package app runs the devserve startup sequence.
//
// The sequence is a linear state machine:
//
//	START -> PORT_RECLAIMED -> HOSTS_RECONCILED -> [CACHE_FLUSHED]
//	      -> URL_SELECTED -> SERVING -> STOPPED | FAILED
//
// Every step before SERVING is best-effort: the reaper, the hosts
// reconciler and the cache invalidator report outcomes as values and never
// abort the run. The only fatal step is binding the listener.
//
// Collaborators are injected through Deps so tests can drive the sequence
// with fakes; NewDeps wires the production implementations.
package app
