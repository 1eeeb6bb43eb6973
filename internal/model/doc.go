// Package model defines the domain types and capability interfaces for the
// devserve CLI.
//
// Every value in this package lives for a single process run: the
// configuration is built once at startup, reconciliation results are
// consumed immediately by the orchestrator, and nothing is persisted beyond
// the externally-owned hosts file.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
