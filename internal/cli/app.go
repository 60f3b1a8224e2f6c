package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/heysagnik/chikki/internal/extension/background"
	"github.com/heysagnik/chikki/internal/extension/popup"
	"github.com/heysagnik/chikki/internal/extension/protocol"
	"github.com/heysagnik/chikki/internal/extension/storage"
	"github.com/heysagnik/chikki/internal/infrastructure/config"
	"github.com/heysagnik/chikki/internal/infrastructure/logging"
)

// App holds the wired extension layers a command runs against.
type App struct {
	Sender   protocol.Sender
	Store    storage.Store
	Settings *background.SettingsStore
	Prompter Prompter
	Logger   *logging.Logger
	Out      io.Writer
	Styles   popup.Styles
	Now      func() time.Time
}

// NewApp wires the background router to the relay and local state on disk.
func NewApp(cfg *config.ClientConfig, out io.Writer) (*App, error) {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.OutputPaths = []string{"stderr"}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	store, err := storage.NewFileStore(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	settings := background.NewSettingsStore(cfg.StateDir)
	backend := background.NewBackendClient(cfg, logger)

	return &App{
		Sender:   background.NewRouter(backend, store, settings, logger),
		Store:    store,
		Settings: settings,
		Prompter: HuhPrompter{},
		Logger:   logger,
		Out:      out,
		Styles:   popup.DefaultStyles(),
		Now:      time.Now,
	}, nil
}

func (a *App) popup() *popup.Controller {
	return popup.NewController(a.Sender, a.Store, a.Logger)
}

func (a *App) render(m popup.Model) {
	fmt.Fprintln(a.Out, a.Styles.Render(m, a.Now()))
}

func (a *App) settings(ctx context.Context) protocol.Settings {
	resp := a.Sender.Send(ctx, protocol.Message{Action: protocol.ActionGetSettings})
	if !resp.Success || resp.Settings == nil {
		return protocol.DefaultSettings()
	}
	return *resp.Settings
}
