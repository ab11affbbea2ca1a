// Package logger builds the zap logger used across bugsync.
//
// # Configuration
//
//   - Level: debug, info, warn, error
//   - Format: json or console
//
// Logs go to stderr so command output on stdout stays machine readable.
//
// # Request Correlation
//
// The fake tracker stores a ray id per request in the fiber context.
// WithRayID attaches it to a logger so every line of one request can be
// correlated.
//
// # Usage
//
//	log, err := logger.New(&cfg.Log)
//	log.Info("Server started")
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
