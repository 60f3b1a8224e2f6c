package popup

import "time"

// StatusKind styles the status line.
type StatusKind string

const (
	StatusInfo    StatusKind = "info"
	StatusSuccess StatusKind = "success"
	StatusWarning StatusKind = "warning"
	StatusError   StatusKind = "error"
	StatusLoading StatusKind = "loading"
)

// StatusTTL is how long info and success messages stay up.
const StatusTTL = 5 * time.Second

// Status is the single message line under the forms.
type Status struct {
	Kind    StatusKind
	Message string
	At      time.Time
}

// Visible reports whether the message should still be shown at now.
func (s Status) Visible(now time.Time) bool {
	if s.Message == "" {
		return false
	}
	if s.Kind == StatusInfo || s.Kind == StatusSuccess {
		return now.Sub(s.At) < StatusTTL
	}
	return true
}
