// Package logging configures the process-wide structured logger.
// Vigil logs through log/slog; this package turns the logging section
// of the configuration into a handler and installs it as the default.
package logging
