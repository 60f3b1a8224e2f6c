// Package middleware provides the relay's HTTP middleware.
//
// Stack, outermost first:
//   - RequestID: X-Request-ID propagation
//   - Recovery / ErrorHandler: panics and unhandled errors become a 500 envelope
//   - Logger: one structured line per request
//   - SecurityHeaders: hardening headers
//   - CORS: allow-list from configuration, 403 for other origins
//   - BodyLimit: request body cap
//   - RateLimit: per-IP token bucket with RateLimit-* headers (mounted on /api)
//   - APIKey: optional shared key (mounted on /api)
//
// Every rejection uses the same body: {"success": false, "error": "..."}.
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.Recovery(log, prod))
//	api := router.Group("/api", middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
