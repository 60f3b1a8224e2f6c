package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores bytes past 72
	MaxNameLength     = 256
	MaxEmailLength    = 255
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return &ValidationError{Field: "name", Message: "is too long"}
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return &ValidationError{Field: "email", Message: "is required"}
	}
	if len(email) > MaxEmailLength || !emailPattern.MatchString(email) {
		return &ValidationError{Field: "email", Message: "is not a valid address"}
	}
	return nil
}

func validatePassword(password string) error {
	switch n := len(password); {
	case n < MinPasswordLength:
		return &ValidationError{Field: "password", Message: "must be at least 8 characters"}
	case n > MaxPasswordLength:
		return &ValidationError{Field: "password", Message: "must be at most 72 bytes"}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
