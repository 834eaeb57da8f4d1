// Package logging builds the slog loggers used by the karaoke renderer.
//
// It owns the console and JSON handlers, level parsing, and a few attribute
// helpers so render stages log with the same field names. A no-op logger is
// provided for tests and for wiring code that has no logger to pass.
package logging
