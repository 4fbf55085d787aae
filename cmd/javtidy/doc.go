// Package main hosts the javtidy CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the long-running daemon (run), one-shot
// processing (once, scan), journal inspection (status, history), and
// configuration scaffolding (config init|show|validate). It centralizes
// configuration resolution and dependency wiring so subcommands can focus on
// user experience.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
