package popup

import "errors"

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrInvalidEmail  = errors.New("invalid email address")
	ErrShortPassword = errors.New("password too short")
)
