// Package logging assembles structured slog loggers used across humanparts
// commands.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code tags log lines with
// the run ID, stage, and dataset split. A no-op logger is provided for tests and
// wiring code that cannot fail.
package logging
