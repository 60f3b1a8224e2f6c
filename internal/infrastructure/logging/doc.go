// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// The relay server and the extension-side packages all take a *Logger; tests
// pass NewNop(). Prompt and model text must go through Preview before being
// logged.
//
// Example Usage:
//
//	logger, err := logging.New(logging.DefaultConfig())
//	logger.Info("Relay starting", zap.String("port", "3000"))
//	logger.Error("Upstream call failed", zap.Error(err))
package logging
