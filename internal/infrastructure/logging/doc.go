// Package logging provides structured logging for the asset registry.
//
// It wraps log/slog so every record carries the service name and build
// version, with JSON output for production and text output for local use.
//
// Configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, file
//	  file:
//	    path: "/var/log/asset-registry.log"
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("asset created", "asset_id", a.ID)
//
// Never log database credentials or broker passwords.
package logging
