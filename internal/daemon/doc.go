// Package daemon coordinates the long-running javtidy process.
//
// It wires configuration, the journal, the watcher, and the worker pool into
// a single lifecycle with flock-based locking to prevent multiple instances.
// Startup runs a recovery sweep that clears backup files left by interrupted
// transactions before any new work is accepted.
//
// Keep orchestration logic here: the per-file pipeline lives in the driver
// package while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
