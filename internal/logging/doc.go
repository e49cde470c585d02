// Package logging constructs the process-wide slog logger. It supports a
// human-readable console format and a JSON format for ingestion, writing
// to stdout and the configured log directory simultaneously.
package logging
