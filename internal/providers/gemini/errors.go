package gemini

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTimeout means the generation API did not answer within the deadline.
	ErrTimeout = errors.New("generation API timed out")
	// ErrMissingText means the API answered 2xx without candidate text.
	ErrMissingText = errors.New("generation API response missing text")
	// ErrUnavailable means the circuit breaker is refusing calls.
	ErrUnavailable = errors.New("generation API temporarily unavailable")
)

// UpstreamError is a non-2xx answer from the generation API. Body is kept
// for logging only and must never reach a client.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("generation API returned status %d", e.Status)
}

// ClientStatus maps the upstream status to the status the relay answers
// with. Upstream auth failures are the relay's own misconfiguration, so they
// surface as a bad gateway rather than asking the user to log in.
func (e *UpstreamError) ClientStatus() int {
	switch {
	case e.Status == http.StatusTooManyRequests:
		return http.StatusTooManyRequests
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return http.StatusBadGateway
	case e.Status >= 400 && e.Status < 500:
		return e.Status
	default:
		return http.StatusBadGateway
	}
}

// isBreakerFailure reports whether err says something about upstream health.
func isBreakerFailure(err error) bool {
	if err == nil {
		return false
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Status >= 500
	}
	return true
}
