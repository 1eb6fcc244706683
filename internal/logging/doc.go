// Package logging assembles the structured slog loggers used across the
// Loomvale pipeline.
//
// It owns the console and JSON handlers, centralizes level plumbing, and
// exposes attribute helpers so pipeline code tags log lines with run IDs,
// row IDs, and components the same way everywhere. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
