package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heysagnik/chikki/internal/extension/background"
	"github.com/heysagnik/chikki/internal/extension/popup"
	"github.com/heysagnik/chikki/internal/extension/protocol"
	"github.com/heysagnik/chikki/internal/extension/storage"
	"github.com/heysagnik/chikki/internal/infrastructure/config"
	"github.com/heysagnik/chikki/internal/infrastructure/server"
)

type echoGenerator struct {
	mu      sync.Mutex
	prompts []string
}

func (g *echoGenerator) Generate(_ context.Context, prompt string, _ json.RawMessage) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return "**done**", nil
}

func (g *echoGenerator) last() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompts[len(g.prompts)-1]
}

type staticPrompter struct {
	creds Credentials
	asked int
}

func (p *staticPrompter) Credentials(_ bool, c Credentials) (Credentials, error) {
	p.asked++
	if c.Name == "" {
		c.Name = p.creds.Name
	}
	if c.Email == "" {
		c.Email = p.creds.Email
	}
	if c.Password == "" {
		c.Password = p.creds.Password
	}
	return c, nil
}

type harness struct {
	gen      *echoGenerator
	store    storage.Store
	prompter *staticPrompter
	out      *bytes.Buffer
	factory  AppFactory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Gemini.APIKey = "test-key"
	cfg.Gemini.Endpoint = "http://127.0.0.1:0/unused"
	gen := &echoGenerator{}
	srv, err := server.New(cfg, nil, server.WithGenerator(gen))
	require.NoError(t, err)
	relay := httptest.NewServer(srv.Handler())
	t.Cleanup(relay.Close)

	dir := t.TempDir()
	clientCfg := config.DefaultClient(dir)
	clientCfg.APIURL = relay.URL
	clientCfg.RetryBackoff = time.Millisecond

	h := &harness{
		gen:      gen,
		store:    storage.NewMemoryStore(),
		prompter: &staticPrompter{creds: Credentials{Name: "Ada", Email: "ada@example.com", Password: "correct horse"}},
		out:      &bytes.Buffer{},
	}
	settings := background.NewSettingsStore(dir)
	router := background.NewRouter(background.NewBackendClient(clientCfg, nil), h.store, settings, nil)
	h.factory = func(*cobra.Command) (*App, error) {
		return &App{
			Sender:   router,
			Store:    h.store,
			Settings: settings,
			Prompter: h.prompter,
			Out:      h.out,
			Styles:   popup.DefaultStyles(),
			Now:      time.Now,
		}, nil
	}
	return h
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	h.out.Reset()
	root := NewRootCommand(h.factory)
	root.SetArgs(args)
	root.SetOut(h.out)
	root.SetErr(h.out)
	err := root.ExecuteContext(context.Background())
	return h.out.String(), err
}

func TestRegisterStatusLogout(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "register")
	require.NoError(t, err)
	assert.Contains(t, out, "Account created successfully!")
	assert.Contains(t, out, "ada@example.com")
	assert.Equal(t, 1, h.prompter.asked)

	sess, ok, err := storage.LoadSession(context.Background(), h.store)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, sess.Token)

	out, err = h.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "Online")
	assert.Contains(t, out, "0 / 100")

	out, err = h.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "You have been logged out")
	_, ok, _ = storage.LoadSession(context.Background(), h.store)
	assert.False(t, ok)
}

func TestLoginFailure(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "login", "--email", "nobody@example.com", "--password", "whatever1")
	require.Error(t, err)
	assert.Contains(t, out, "Login failed: Invalid email or password")
}

func TestGenerateWithSelection(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "settings", "set", "min-loading", "150")
	require.NoError(t, err)

	started := time.Now()
	out, err := h.run(t, "generate", "-s", "teh fox", "fix", "typos")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(started), 150*time.Millisecond)
	assert.Equal(t, "**done**\n", out)
	assert.Equal(t, "Context: \"teh fox\"\nRequest: \"fix typos\"", h.gen.last())

	out, err = h.run(t, "generate", "--html", "hello")
	require.NoError(t, err)
	assert.Equal(t, "<p><strong>done</strong></p>\n", out)
	assert.Equal(t, "hello", h.gen.last())
}

func TestActionUsesSettings(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "settings", "set", "tone", "friendly")
	require.NoError(t, err)

	_, err = h.run(t, "action", background.KindChangeTone, "Please", "advise.")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h.gen.last(), "Rewrite the following text in a friendly tone."))

	_, err = h.run(t, "action", "nonsense", "x")
	assert.EqualError(t, err, background.ErrInvalidAction.Error())
}

func TestMenu(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "menu", protocol.MenuExplain, "idempotent")
	require.NoError(t, err)
	assert.Equal(t, "Explain the following text simply:\n\n\"idempotent\"", h.gen.last())
}

func TestSettings(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "settings", "set", "min-loading", "0")
	require.NoError(t, err)
	out, err := h.run(t, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "min loading:       0ms")
	assert.Contains(t, out, "default tone:      professional")

	_, err = h.run(t, "settings", "set", "colour", "blue")
	assert.EqualError(t, err, `unknown setting "colour"`)
}

func TestApplySetting(t *testing.T) {
	s := protocol.DefaultSettings()
	require.NoError(t, applySetting(&s, "show-icon", "false"))
	assert.False(t, s.ShowIcon)
	assert.Error(t, applySetting(&s, "min-loading", "-3"))
	assert.Error(t, applySetting(&s, "show-icon", "maybe"))
}
