// Package main runs the Chikki relay.
//
// The relay holds the generation API credentials and exposes a small JSON
// API to the browser extension:
//
//	Extension → Relay (/api/generate) → Generation API
//
// Configuration comes from the environment only. GEMINI_API_KEY and
// GEMINI_API_ENDPOINT are required; the process exits with status 1 when
// either is missing.
//
// Usage:
//
//	GEMINI_API_KEY=... GEMINI_API_ENDPOINT=https://... ./relay
//
//	# Development mode (colored logs)
//	LOG_DEV=true LOG_LEVEL=debug ./relay
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
