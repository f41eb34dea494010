// Package logging provides structured logging for a Gray Logic Node.
//
// It wraps log/slog so every component logs the same way: JSON in
// production, text on a bench, with service and version attached to
// every line.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	telemetryLog := logger.Component("telemetry")
//	telemetryLog.Warn("sample skipped", "error", err)
//
// Never log secrets such as the MQTT password or the JWT signing key.
package logging
