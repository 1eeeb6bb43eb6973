// Package server serves a directory over HTTP for local development.
//
// Every response carries headers that stop the browser from caching
// anything, so an edited file shows up on the next reload. The package
// splits binding (Listen) from serving (Serve) so the caller can react to a
// successful bind, and reports "address already in use" as ErrAddrInUse so
// it can be told apart from other bind failures.
package server
