// Package background implements the extension's background router.
//
// Content scripts and the popup send protocol.Message values; the Router
// answers each with a protocol.Response. It is the only component that talks
// to the relay (BackendClient) or touches the stored session.
//
// Generate requests are retried up to MaxRetries times on connection-level
// failures with a linear backoff. HTTP answers are never retried.
package background
