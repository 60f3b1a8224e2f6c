package http

import (
	"context"
	"encoding/json"
	"time"

	"github.com/heysagnik/chikki/internal/domain/auth"
	"github.com/heysagnik/chikki/internal/infrastructure/logging"
	"github.com/heysagnik/chikki/internal/infrastructure/monitoring"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, generationConfig json.RawMessage) (string, error)
}

// Accounts is the account store behind the auth routes.
type Accounts interface {
	Register(name, email, password string) (string, auth.User, error)
	Login(email, password string) (string, auth.User, error)
	Authenticate(token string) (auth.User, error)
	RecordUsage(userID string)
}

// ServiceInfo describes the running relay on the status route.
type ServiceInfo struct {
	Name        string
	Version     string
	Environment string
	Production  bool
	Started     time.Time
}

// Handlers serves the relay routes.
type Handlers struct {
	generator Generator
	accounts  Accounts
	info      ServiceInfo
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	now       func() time.Time
}

// NewHandlers wires the route handlers. accounts may be nil when the auth
// routes are not mounted.
func NewHandlers(generator Generator, accounts Accounts, info ServiceInfo, logger *logging.Logger, metrics *monitoring.Metrics) *Handlers {
	if info.Started.IsZero() {
		info.Started = time.Now()
	}
	if info.Name == "" {
		info.Name = "Chikki Relay"
	}
	return &Handlers{
		generator: generator,
		accounts:  accounts,
		info:      info,
		logger:    logging.OrNop(logger).Named("api"),
		metrics:   metrics,
		now:       time.Now,
	}
}
