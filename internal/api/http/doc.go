// Package http holds the relay's route handlers.
//
// Routes:
//   - GET  /                  service status (JSON, or HTML when preferred)
//   - POST /api/generate      prompt in, generated text out
//   - POST /api/auth/register development account store
//   - POST /api/auth/login
//   - GET  /api/auth/me
//
// Every JSON response is an envelope: {"success": bool, "data": ..., "error": "..."}.
package http
