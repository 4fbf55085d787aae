// Package watcher feeds the work queue. On startup it walks the input tree
// once, then follows filesystem events, coalescing bursts for the same path
// and waiting for files to settle before emitting them. Only files passing
// the extension and minimum-size filters are emitted.
package watcher
