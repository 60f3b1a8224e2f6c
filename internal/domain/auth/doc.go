// Package auth is the relay's development account store.
//
// Accounts and sessions live in process memory only. Passwords are hashed with
// bcrypt; session tokens are 32 random bytes, URL-safe base64, with a fixed TTL.
package auth
