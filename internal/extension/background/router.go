package background

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/heysagnik/chikki/internal/extension/protocol"
	"github.com/heysagnik/chikki/internal/extension/storage"
	"github.com/heysagnik/chikki/internal/infrastructure/logging"
)

// Router is the background message hub. It owns the relay client and the
// session in local storage; the other layers only ever send it messages.
type Router struct {
	backend  Backend
	store    storage.Store
	settings *SettingsStore
	logger   *logging.Logger
}

// NewRouter creates a router. settings may be nil, in which case getSettings
// returns the defaults.
func NewRouter(backend Backend, store storage.Store, settings *SettingsStore, logger *logging.Logger) *Router {
	return &Router{
		backend:  backend,
		store:    store,
		settings: settings,
		logger:   logging.OrNop(logger).Named("router"),
	}
}

// Send implements protocol.Sender.
func (r *Router) Send(ctx context.Context, msg protocol.Message) protocol.Response {
	return r.Dispatch(ctx, msg)
}

// Dispatch handles one message and always returns a response.
func (r *Router) Dispatch(ctx context.Context, msg protocol.Message) protocol.Response {
	name := msg.Name()
	r.logger.Debug("message received", zap.String("action", name))

	if kind, ok := msg.ActionKind(); ok {
		return r.performAction(ctx, kind, msg.Data)
	}

	switch name {
	case protocol.ActionGenerate:
		return r.generate(ctx, msg.Prompt, msg)
	case protocol.ActionLogin:
		return r.login(ctx, msg.Data)
	case protocol.ActionRegister:
		return r.register(ctx, msg.Data)
	case protocol.ActionLogout:
		return r.logout(ctx)
	case protocol.ActionGetHealth:
		return r.health(ctx)
	case protocol.ActionGetProfile:
		return r.profile(ctx)
	case protocol.ActionGetSettings:
		return r.getSettings()
	case protocol.ActionContextMenu:
		return r.contextMenu(ctx, msg.Data)
	default:
		r.logger.Warn("unknown message action", zap.String("action", name))
		return protocol.Fail(ErrUnknownAction)
	}
}

func (r *Router) generate(ctx context.Context, prompt string, msg protocol.Message) protocol.Response {
	if strings.TrimSpace(prompt) == "" {
		return protocol.Fail(ErrEmptyPrompt)
	}

	token, err := storage.LoadToken(ctx, r.store)
	if err != nil {
		r.logger.Warn("read token failed", zap.Error(err))
	}

	text, err := r.backend.Generate(ctx, prompt, msg.GenerationConfig, token)
	if err != nil {
		return protocol.Fail(err)
	}
	return protocol.Response{Success: true, Data: text}
}

func (r *Router) performAction(ctx context.Context, kind string, data *protocol.Data) protocol.Response {
	if data == nil {
		return protocol.Fail(ErrInvalidAction)
	}
	prompt, err := BuildPrompt(kind, *data)
	if err != nil {
		return protocol.Fail(err)
	}
	return r.generate(ctx, prompt, protocol.Message{})
}

func (r *Router) contextMenu(ctx context.Context, data *protocol.Data) protocol.Response {
	if data == nil || strings.TrimSpace(data.Text) == "" {
		return protocol.Fail(ErrMissingText)
	}
	kind := data.ActionType
	if kind == "" {
		kind = menuKind(data.MenuItemID)
	}
	if kind == "" {
		return protocol.Fail(ErrInvalidAction)
	}
	return r.performAction(ctx, kind, data)
}

// menuKind maps a context menu entry to its action kind.
func menuKind(menuItemID string) string {
	switch menuItemID {
	case protocol.MenuRewrite:
		return KindRewrite
	case protocol.MenuExplain:
		return KindExplain
	default:
		return ""
	}
}

func (r *Router) login(ctx context.Context, data *protocol.Data) protocol.Response {
	if data == nil {
		data = &protocol.Data{}
	}
	token, user, err := r.backend.Login(ctx, data.Email, data.Password)
	return r.openSession(ctx, "login", token, user, err)
}

func (r *Router) register(ctx context.Context, data *protocol.Data) protocol.Response {
	if data == nil {
		data = &protocol.Data{}
	}
	token, user, err := r.backend.Register(ctx, data.Name, data.Email, data.Password)
	return r.openSession(ctx, "register", token, user, err)
}

func (r *Router) openSession(ctx context.Context, action, token string, user protocol.User, err error) protocol.Response {
	if err != nil {
		r.logger.Info("auth request failed", zap.String("action", action), zap.Error(err))
		return protocol.Fail(err)
	}
	if err := storage.SaveSession(ctx, r.store, token, user); err != nil {
		r.logger.Error("save session failed", zap.Error(err))
		return protocol.Fail(ErrSaveSession)
	}
	return protocol.Response{Success: true, Token: token, User: &user}
}

func (r *Router) logout(ctx context.Context) protocol.Response {
	if err := storage.ClearSession(ctx, r.store); err != nil {
		return protocol.Fail(err)
	}
	return protocol.Response{Success: true}
}

func (r *Router) health(ctx context.Context) protocol.Response {
	health, err := r.backend.Health(ctx)
	if err != nil {
		r.logger.Info("health check failed", zap.Error(err))
		return protocol.Response{Success: false, Health: protocol.HealthOffline, Error: err.Error()}
	}
	return protocol.Response{Success: true, Health: health}
}

func (r *Router) profile(ctx context.Context) protocol.Response {
	token, err := storage.LoadToken(ctx, r.store)
	if err != nil {
		return protocol.Fail(err)
	}
	if token == "" {
		return protocol.Response{Error: ErrNotAuthenticated.Error(), RequiresLogout: true}
	}

	user, err := r.backend.Profile(ctx, token)
	switch {
	case err == nil:
	case IsAuthFailure(err):
		if err := storage.ClearSession(ctx, r.store); err != nil {
			r.logger.Error("clear session failed", zap.Error(err))
		}
		return protocol.Response{Error: ErrSessionExpired.Error(), RequiresLogout: true}
	default:
		return protocol.Fail(err)
	}

	if err := storage.SaveUser(ctx, r.store, user); err != nil {
		r.logger.Warn("save profile failed", zap.Error(err))
	}
	return protocol.Response{Success: true, User: &user}
}

func (r *Router) getSettings() protocol.Response {
	settings := protocol.DefaultSettings()
	if r.settings != nil {
		loaded, err := r.settings.Load()
		if err != nil {
			return protocol.Fail(err)
		}
		settings = loaded
	}
	return protocol.Response{Success: true, Settings: &settings}
}
