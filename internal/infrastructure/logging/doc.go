// Package logging provides structured logging for the doorbell client.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("session restored", "user_id", profile.ID)
//	logger.Error("profile fetch failed", "error", err)
//
// # Security
//
// Never log session tokens, credentials, or push identifiers in full.
// Redact where context is needed:
//
//	logger.Debug("token loaded", "token_prefix", token[:6]+"...")
package logging
