// Package hosts makes a custom domain resolve to loopback by appending
// entries to the system hosts file.
//
// The hosts file is shared with the user and other tools, so this package
// only ever appends: it never truncates, rewrites or locks the file. Writing
// needs elevated privilege, which goes through a model.PrivilegedWriter
// (sudo tee -a in production). A failed write is reported in the
// ReconciliationResult, never returned as an error, so the caller can fall
// back to serving on localhost.
package hosts
