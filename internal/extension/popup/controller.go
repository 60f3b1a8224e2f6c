package popup

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/heysagnik/chikki/internal/extension/protocol"
	"github.com/heysagnik/chikki/internal/extension/storage"
	"github.com/heysagnik/chikki/internal/infrastructure/logging"
)

// View is the popup screen.
type View int

const (
	ViewAuth View = iota
	ViewDashboard
)

// Tab selects the form on the auth view.
type Tab string

const (
	TabLogin    Tab = "login"
	TabRegister Tab = "register"
)

// DefaultCredits is shown when the profile has no credit total.
const DefaultCredits = 100

// Plan labels.
const (
	PlanVerified = "Verified"
	PlanFree     = "Free"
)

// Health labels.
const (
	HealthChecking = "Checking..."
	HealthOnline   = "Online"
	HealthDegraded = "Degraded"
	HealthOffline  = "Offline"
)

const (
	minPasswordLength = 6
	placeholder       = "..."
)

var looseEmail = regexp.MustCompile(`\S+@\S+\.\S+`)

// Dashboard holds the signed-in user's details.
type Dashboard struct {
	Name    string
	Email   string
	Plan    string
	Usage   int
	Credits int
}

// Model is everything the popup displays.
type Model struct {
	View      View
	Tab       Tab
	Dashboard Dashboard
	Health    string
	Status    Status
}

// HealthLabel maps a health value to its display text.
func HealthLabel(h protocol.Health) string {
	switch h {
	case protocol.HealthOnline:
		return HealthOnline
	case protocol.HealthWarning:
		return HealthDegraded
	default:
		return HealthOffline
	}
}

// DashboardFor builds the dashboard fields for a user.
func DashboardFor(u protocol.User) Dashboard {
	d := Dashboard{
		Name:    orNA(u.Name),
		Email:   orNA(u.Email),
		Plan:    PlanFree,
		Usage:   u.Usage,
		Credits: u.Credits,
	}
	if u.EmailVerified {
		d.Plan = PlanVerified
	}
	if d.Credits <= 0 {
		d.Credits = DefaultCredits
	}
	return d
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Controller runs the popup against the background layer and local storage.
type Controller struct {
	sender protocol.Sender
	store  storage.Store
	logger *logging.Logger
	now    func() time.Time

	mu    sync.Mutex
	model Model
}

// NewController creates a Controller showing the auth view.
func NewController(sender protocol.Sender, store storage.Store, logger *logging.Logger) *Controller {
	return &Controller{
		sender: sender,
		store:  store,
		logger: logging.OrNop(logger).Named("popup"),
		now:    time.Now,
		model:  Model{View: ViewAuth, Tab: TabLogin, Health: HealthOffline},
	}
}

// Model returns a copy of the current display state.
func (c *Controller) Model() Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

func (c *Controller) update(fn func(m *Model)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.model)
}

func (c *Controller) setStatus(kind StatusKind, msg string) {
	c.update(func(m *Model) {
		m.Status = Status{Kind: kind, Message: msg, At: c.now()}
	})
}

func (c *Controller) showAuth(tab Tab) {
	c.update(func(m *Model) {
		m.View = ViewAuth
		m.Tab = tab
		m.Dashboard = Dashboard{Name: placeholder, Email: placeholder, Plan: placeholder}
		m.Health = HealthOffline
	})
}

func (c *Controller) showDashboard(u protocol.User) {
	c.update(func(m *Model) {
		m.View = ViewDashboard
		m.Dashboard = DashboardFor(u)
	})
}

// SwitchTab changes the auth form and clears the status line.
func (c *Controller) SwitchTab(tab Tab) {
	c.update(func(m *Model) {
		m.Tab = tab
		m.Status = Status{}
	})
}

// CheckAuthState shows the dashboard for a stored session and refreshes it,
// or the auth view when there is none.
func (c *Controller) CheckAuthState(ctx context.Context) Model {
	sess, ok, err := storage.LoadSession(ctx, c.store)
	if err != nil {
		c.logger.Error("failed to read session", zap.Error(err))
		c.setStatus(StatusError, "Error loading extension state.")
		c.showAuth(TabLogin)
		return c.Model()
	}
	if !ok {
		c.logout(ctx, false)
		return c.Model()
	}

	c.showDashboard(sess.User)
	c.RefreshHealth(ctx)
	c.RefreshProfile(ctx)
	return c.Model()
}

// Login signs in through the background layer.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		c.setStatus(StatusWarning, "Please enter both email and password")
		return ErrMissingFields
	}

	c.setStatus(StatusLoading, "Logging in...")
	resp := c.sender.Send(ctx, protocol.Message{
		Action: protocol.ActionLogin,
		Data:   &protocol.Data{Email: email, Password: password},
	})
	if err := sessionError(resp, "Login failed. Invalid response."); err != nil {
		c.logger.Warn("login failed", zap.Error(err))
		c.setStatus(StatusError, "Login failed: "+err.Error())
		c.showAuth(TabLogin)
		return err
	}

	c.setStatus(StatusSuccess, "Login successful!")
	c.showDashboard(*resp.User)
	c.RefreshHealth(ctx)
	return nil
}

// Register creates an account through the background layer.
func (c *Controller) Register(ctx context.Context, name, email, password string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	switch {
	case name == "" || email == "" || password == "":
		c.setStatus(StatusWarning, "Please fill in all fields")
		return ErrMissingFields
	case !looseEmail.MatchString(email):
		c.setStatus(StatusWarning, "Please enter a valid email address")
		return ErrInvalidEmail
	case len(password) < minPasswordLength:
		c.setStatus(StatusWarning, "Password must be at least 6 characters")
		return ErrShortPassword
	}

	c.setStatus(StatusLoading, "Creating account...")
	resp := c.sender.Send(ctx, protocol.Message{
		Action: protocol.ActionRegister,
		Data:   &protocol.Data{Name: name, Email: email, Password: password},
	})
	if err := sessionError(resp, "Registration failed. Invalid response."); err != nil {
		c.logger.Warn("registration failed", zap.Error(err))
		c.setStatus(StatusError, "Registration failed: "+err.Error())
		c.update(func(m *Model) { m.Tab = TabRegister })
		return err
	}

	c.setStatus(StatusSuccess, "Account created successfully!")
	c.showDashboard(*resp.User)
	c.RefreshHealth(ctx)
	return nil
}

func sessionError(resp protocol.Response, fallback string) error {
	if resp.Success && resp.Token != "" && resp.User != nil {
		return nil
	}
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	return errors.New(fallback)
}

// Logout clears the stored session and returns to the auth view.
func (c *Controller) Logout(ctx context.Context) error {
	return c.logout(ctx, true)
}

func (c *Controller) logout(ctx context.Context, announce bool) error {
	wasLoggedIn := c.Model().View == ViewDashboard
	err := storage.ClearSession(ctx, c.store)
	if err != nil {
		c.logger.Error("failed to clear session", zap.Error(err))
	}
	c.showAuth(TabLogin)
	if announce && wasLoggedIn {
		c.setStatus(StatusInfo, "You have been logged out")
	}
	return err
}

// RefreshHealth asks the background layer for relay health.
func (c *Controller) RefreshHealth(ctx context.Context) string {
	c.update(func(m *Model) { m.Health = HealthChecking })

	resp := c.sender.Send(ctx, protocol.Message{Action: protocol.ActionGetHealth})
	label := HealthOffline
	if resp.Success {
		label = HealthLabel(resp.Health)
	} else {
		c.logger.Debug("health check failed", zap.String("error", resp.Error))
	}
	c.update(func(m *Model) { m.Health = label })
	return label
}

// RefreshProfile reloads the user and logs out when the session is gone.
func (c *Controller) RefreshProfile(ctx context.Context) {
	resp := c.sender.Send(ctx, protocol.Message{Action: protocol.ActionGetProfile})
	switch {
	case resp.Success && resp.User != nil:
		c.showDashboard(*resp.User)
	case resp.RequiresLogout:
		c.logger.Info("profile refresh requires logout")
		_ = c.logout(ctx, false)
		c.setStatus(StatusWarning, "Session expired. Please log in again.")
	default:
		c.logger.Warn("profile refresh failed", zap.String("error", resp.Error))
		c.update(func(m *Model) {
			m.Dashboard.Name = "Error"
			m.Dashboard.Email = "Could not load"
		})
		c.setStatus(StatusError, "Failed to refresh profile data")
	}
}
