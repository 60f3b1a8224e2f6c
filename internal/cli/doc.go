// Package cli is the chikki terminal client. Commands reuse the extension
// layers: the popup controller for account flows, the content controller for
// selection prompts and the background router for everything that reaches
// the relay.
package cli
