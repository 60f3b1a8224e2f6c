// Package storage models extension local storage: a key/value Store with an
// in-memory and a file-backed implementation, plus session helpers.
package storage
