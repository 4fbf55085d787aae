// Package journal persists processing history in a WAL-mode SQLite database.
//
// Every driver run writes one row recording the source path, extracted catalog
// ID, the template that produced the metadata, the terminal state, and any
// error text. A companion backups table tracks .backup.<epoch> files parked by
// in-flight transactions so the startup recovery sweep can find leftovers
// without walking the whole library.
package journal
