// Command chikki is a terminal client for the Chikki relay.
//
// It keeps the same local state as the browser extension (session token,
// profile and preferences) under CHIKKI_STATE_DIR, by default the user
// config directory.
//
// Usage:
//
//	chikki login --email you@example.com
//	chikki status
//	chikki generate -s "teh quick fox" "fix the typos"
//	chikki action changeTone --tone friendly "Please advise."
//	chikki menu aiAssistExplain "idempotent"
//	chikki settings set tone casual
//	chikki logout
package main
