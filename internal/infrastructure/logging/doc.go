// Package logging provides structured logging for the NGSI bridge.
//
// It wraps Go's standard log/slog package so every component logs with
// the same default fields and level filtering.
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
//	logger.Info("starting service", "port", 4041)
//	logger.Error("device lookup failed", "error", err)
//
// Never log service credentials; inbound payloads are logged at debug only.
package logging
