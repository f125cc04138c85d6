// Package logging provides structured logging for vidhub.
//
// It wraps log/slog so every entry carries the service and version fields.
// JSON output is the production default, text is available for development.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log passwords, tokens, or their digests. Log account IDs instead.
package logging
