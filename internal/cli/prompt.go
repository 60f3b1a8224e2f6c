package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// Credentials are the fields of the login and register forms.
type Credentials struct {
	Name     string
	Email    string
	Password string
}

// Prompter asks the user for whatever credentials are still missing.
type Prompter interface {
	Credentials(register bool, current Credentials) (Credentials, error)
}

// HuhPrompter shows an interactive terminal form.
type HuhPrompter struct{}

// Credentials runs the form for the missing fields only.
func (HuhPrompter) Credentials(register bool, c Credentials) (Credentials, error) {
	var fields []huh.Field
	if register && c.Name == "" {
		fields = append(fields, huh.NewInput().Title("Name").Value(&c.Name))
	}
	if c.Email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Placeholder("you@example.com").Value(&c.Email))
	}
	if c.Password == "" {
		fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&c.Password))
	}
	if len(fields) == 0 {
		return c, nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return c, fmt.Errorf("prompt failed: %w", err)
	}
	return c, nil
}
