package background

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPrompt      = errors.New("Prompt cannot be empty")
	ErrUnauthorized     = errors.New("Unauthorized: Please log in again")
	ErrRateLimited      = errors.New("Rate limit exceeded. Please try again later.")
	ErrTimeout          = errors.New("Request timed out")
	ErrNetwork          = errors.New("Network error: could not reach the server")
	ErrInvalidResponse  = errors.New("Invalid response format")
	ErrInvalidAction    = errors.New("Invalid action type or data for prompt generation.")
	ErrUnknownAction    = errors.New("Unknown action")
	ErrNotAuthenticated = errors.New("Not authenticated")
	ErrSessionExpired   = errors.New("Session expired or invalid")
	ErrInvalidProfile   = errors.New("Invalid profile data received")
	ErrMissingSession   = errors.New("Backend response missing token or user data.")
	ErrSaveSession      = errors.New("Failed to save session data.")
	ErrMissingText      = errors.New("No text provided")
)

// APIError is a non-2xx answer from the relay.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API Error (%d)", e.Status)
}

// IsAuthFailure reports whether err is a 401 or 403 from the relay.
func IsAuthFailure(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.Status == 401 || apiErr.Status == 403)
}
