// Package protocol defines the messages exchanged between the extension
// layers: content script and popup send a Message, the background router
// answers with a Response.
package protocol
