// Package config provides 12-factor configuration for the relay server and
// the extension background layer.
//
// Relay configuration is read from unprefixed environment variables:
//   - GEMINI_API_KEY, GEMINI_API_ENDPOINT (required), GEMINI_TIMEOUT
//   - PORT, HOST, NODE_ENV, APP_VERSION, RELAY_API_KEY, MAX_BODY_BYTES
//   - CORS_ALLOWED_ORIGINS (comma separated)
//   - RATE_LIMIT_WINDOW, RATE_LIMIT_MAX, RATE_LIMIT_ENABLED
//   - AUTH_ENABLED, AUTH_TOKEN_TTL
//   - LOG_LEVEL, LOG_DEV
//
// Background configuration uses the CHIKKI_ prefix (CHIKKI_API_URL,
// CHIKKI_API_KEY, CHIKKI_TIMEOUT, CHIKKI_MAX_RETRIES, CHIKKI_STATE_DIR, ...).
package config
