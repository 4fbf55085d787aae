// Package driver runs one source file through the processing pipeline: lock,
// catalog-ID extraction, template scraping, record validation, destination
// planning, and the transactional commit that writes the sidecar and moves
// the video. Each run is recorded in the journal and classified through the
// package's error sentinels.
package driver
