package protocol

import (
	"context"
	"encoding/json"
	"strings"
)

// Actions understood by the background router.
const (
	ActionGenerate    = "generate"
	ActionLogin       = "login"
	ActionRegister    = "register"
	ActionLogout      = "logout"
	ActionGetHealth   = "getHealth"
	ActionGetProfile  = "getProfile"
	ActionGetSettings = "getSettings"
	ActionContextMenu = "triggerAiFromContextMenu"

	// ActionPerformPrefix precedes an action kind, e.g. performAiAction_rewrite.
	ActionPerformPrefix = "performAiAction_"
)

// Context menu entries.
const (
	MenuRewrite = "aiAssistRewrite"
	MenuExplain = "aiAssistExplain"
)

// PerformAction returns the message action for an AI action kind.
func PerformAction(kind string) string {
	return ActionPerformPrefix + kind
}

// Message is a request between extension layers. Senders use either Action
// or Type; Action wins when both are set.
type Message struct {
	Action           string          `json:"action,omitempty"`
	Type             string          `json:"type,omitempty"`
	Prompt           string          `json:"prompt,omitempty"`
	GenerationConfig json.RawMessage `json:"generationConfig,omitempty"`
	Data             *Data           `json:"data,omitempty"`
}

// Name returns the action the message asks for.
func (m Message) Name() string {
	if m.Action != "" {
		return m.Action
	}
	return m.Type
}

// ActionKind returns the kind of a performAiAction_* message.
func (m Message) ActionKind() (string, bool) {
	return strings.CutPrefix(m.Name(), ActionPerformPrefix)
}

// Data carries action parameters and credentials.
type Data struct {
	Text       string `json:"text,omitempty"`
	Tone       string `json:"tone,omitempty"`
	Context    string `json:"context,omitempty"`
	Language   string `json:"language,omitempty"`
	ActionType string `json:"actionType,omitempty"`
	MenuItemID string `json:"menuItemId,omitempty"`

	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// Health is the coarse relay health shown to users.
type Health string

const (
	HealthOnline  Health = "online"
	HealthWarning Health = "warning"
	HealthOffline Health = "offline"
)

// User is the profile the relay returns for a session.
type User struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	Role          string `json:"role,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Usage         int    `json:"usage,omitempty"`
	Credits       int    `json:"credits,omitempty"`
}

// Settings are the user's local preferences.
type Settings struct {
	DefaultTone     string `json:"defaultTone" yaml:"default_tone"`
	DefaultLanguage string `json:"defaultLanguage" yaml:"default_language"`
	FindInfoContext string `json:"findInfoContext" yaml:"find_info_context"`
	// MinLoadingMillis is the shortest time the loading state stays visible.
	MinLoadingMillis int  `json:"minLoadingMillis" yaml:"min_loading_ms"`
	ShowIcon         bool `json:"showIcon" yaml:"show_icon"`
}

// DefaultSettings is used when no settings file exists.
func DefaultSettings() Settings {
	return Settings{
		DefaultTone:      "professional",
		DefaultLanguage:  "English",
		FindInfoContext:  "General writing",
		MinLoadingMillis: 900,
		ShowIcon:         true,
	}
}

// Response is the reply to a Message. Failures always carry Success=false
// and a human-readable Error.
type Response struct {
	Success        bool      `json:"success"`
	Data           string    `json:"data,omitempty"`
	Error          string    `json:"error,omitempty"`
	Token          string    `json:"token,omitempty"`
	User           *User     `json:"user,omitempty"`
	Health         Health    `json:"health,omitempty"`
	RequiresLogout bool      `json:"requiresLogout,omitempty"`
	Settings       *Settings `json:"settings,omitempty"`
}

// Fail builds an error response.
func Fail(err error) Response {
	return Response{Success: false, Error: err.Error()}
}

// Sender delivers a message to the background layer and waits for the reply.
type Sender interface {
	Send(ctx context.Context, msg Message) Response
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) Response

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg Message) Response {
	return f(ctx, msg)
}
