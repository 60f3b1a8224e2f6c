package popup

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the terminal styles for the popup.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Box     lipgloss.Style
	Online  lipgloss.Style
	Warning lipgloss.Style
	Offline lipgloss.Style
	Status  map[StatusKind]lipgloss.Style
}

// DefaultStyles returns the popup palette.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(8),
		Value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
		Online:  lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		Offline: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Status: map[StatusKind]lipgloss.Style{
			StatusInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
			StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
			StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
			StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
			StatusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		},
	}
}

// Render draws the model as of now.
func (s Styles) Render(m Model, now time.Time) string {
	var b strings.Builder

	b.WriteString(s.Title.Render("Chikki"))
	b.WriteString("\n\n")

	if m.View == ViewDashboard {
		b.WriteString(s.renderDashboard(m))
	} else {
		b.WriteString(s.renderAuth(m))
	}

	if m.Status.Visible(now) {
		style, ok := s.Status[m.Status.Kind]
		if !ok {
			style = s.Value
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.Status.Message))
	}
	return b.String()
}

func (s Styles) renderDashboard(m Model) string {
	d := m.Dashboard
	rows := []string{
		s.row("Name", d.Name),
		s.row("Email", d.Email),
		s.row("Plan", d.Plan),
		s.row("Usage", fmt.Sprintf("%d / %d", d.Usage, d.Credits)),
		s.Label.Render("API") + s.healthStyle(m.Health).Render("● "+m.Health),
	}
	return s.Box.Render(strings.Join(rows, "\n")) + "\n"
}

func (s Styles) renderAuth(m Model) string {
	hint := "Not signed in. Run `chikki login` to continue."
	if m.Tab == TabRegister {
		hint = "Create an account with `chikki register`."
	}
	out := s.Value.Render(hint) + "\n"
	if m.Health != "" {
		out += s.Label.Render("API") + s.healthStyle(m.Health).Render("● "+m.Health) + "\n"
	}
	return out
}

func (s Styles) row(label, value string) string {
	return s.Label.Render(label) + s.Value.Render(value)
}

func (s Styles) healthStyle(label string) lipgloss.Style {
	switch label {
	case HealthOnline:
		return s.Online
	case HealthDegraded:
		return s.Warning
	case HealthOffline:
		return s.Offline
	default:
		return s.Value
	}
}
