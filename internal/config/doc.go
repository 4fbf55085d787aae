// Package config loads, normalizes, and validates javtidy configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// JAVTIDY_INPUT_DIR. The Config type centralizes every knob the daemon and CLI
// need, so input/output directories, template priority, and naming rules are
// discovered in one pass. Keys the current binary does not recognize are
// collected rather than rejected; callers surface them as warnings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
