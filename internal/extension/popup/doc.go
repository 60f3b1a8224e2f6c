// Package popup holds the account popup: session checks, login and
// registration forms, the dashboard and its status line. Styles renders the
// same model to a terminal.
package popup
