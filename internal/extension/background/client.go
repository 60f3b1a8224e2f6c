package background

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/heysagnik/chikki/internal/extension/protocol"
	"github.com/heysagnik/chikki/internal/infrastructure/config"
	"github.com/heysagnik/chikki/internal/infrastructure/logging"
)

// Relay endpoints.
const (
	PathGenerate = "/api/generate"
	PathLogin    = "/api/auth/login"
	PathRegister = "/api/auth/register"
	PathProfile  = "/api/auth/me"
	PathHealth   = "/"
)

const maxResponseBytes = 1 << 20

// Backend is the relay as seen by the router.
type Backend interface {
	Generate(ctx context.Context, prompt string, generationConfig json.RawMessage, token string) (string, error)
	Login(ctx context.Context, email, password string) (string, protocol.User, error)
	Register(ctx context.Context, name, email, password string) (string, protocol.User, error)
	Health(ctx context.Context) (protocol.Health, error)
	Profile(ctx context.Context, token string) (protocol.User, error)
}

// BackendClient talks to the relay over HTTP. Only generate requests are
// retried, and only when the request never got an HTTP answer.
type BackendClient struct {
	baseURL       string
	apiKey        string
	healthTimeout time.Duration
	generate      *retryablehttp.Client
	plain         *retryablehttp.Client
	logger        *logging.Logger
}

// NewBackendClient builds a client from the extension configuration.
func NewBackendClient(cfg *config.ClientConfig, logger *logging.Logger) *BackendClient {
	logger = logging.OrNop(logger).Named("backend")
	return &BackendClient{
		baseURL:       strings.TrimRight(cfg.APIURL, "/"),
		apiKey:        cfg.APIKey,
		healthTimeout: cfg.HealthTimeout,
		generate:      newRetryClient(cfg.Timeout, cfg.MaxRetries, cfg.RetryBackoff, logger),
		plain:         newRetryClient(cfg.Timeout, 0, 0, logger),
		logger:        logger,
	}
}

func newRetryClient(timeout time.Duration, retries int, backoff time.Duration, logger *logging.Logger) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = timeout
	rc.RetryMax = retries
	rc.RetryWaitMin = backoff
	rc.RetryWaitMax = backoff * time.Duration(retries+1)
	rc.CheckRetry = retryOnTransportError
	rc.Backoff = func(min, _ time.Duration, attempt int, _ *http.Response) time.Duration {
		return min * time.Duration(attempt+1)
	}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = zapLeveled{logger.Sugar()}
	return rc
}

// retryOnTransportError retries connection-level failures. Timeouts and any
// HTTP answer, whatever its status, end the attempt.
func retryOnTransportError(ctx context.Context, _ *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err == nil {
		return false, nil
	}
	if isTimeout(err) {
		return false, nil
	}
	return true, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// envelope is the relay's response body.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (e envelope) errorMessage() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

type reply struct {
	status      int
	contentType string
	body        []byte
}

func (r reply) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (c *BackendClient) do(ctx context.Context, client *retryablehttp.Client, method, path string, payload any, header http.Header) (reply, error) {
	var body []byte
	if payload != nil {
		b, err := sonic.Marshal(payload)
		if err != nil {
			return reply{}, fmt.Errorf("encode request: %w", err)
		}
		body = b
	}

	var reqBody any
	if body != nil {
		reqBody = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return reply{}, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := client.Do(req)
	if err != nil {
		return reply{}, c.classify(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return reply{}, c.classify(ctx, err)
	}
	return reply{status: resp.StatusCode, contentType: resp.Header.Get("Content-Type"), body: raw}, nil
}

func (c *BackendClient) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return ctx.Err()
	case isTimeout(err):
		return ErrTimeout
	default:
		c.logger.Debug("transport failure", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
}

// Generate sends a prompt to the relay and returns the generated text.
func (c *BackendClient) Generate(ctx context.Context, prompt string, generationConfig json.RawMessage, token string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	requestID := uuid.NewString()
	payload := struct {
		Prompt           string          `json:"prompt"`
		GenerationConfig json.RawMessage `json:"generationConfig,omitempty"`
	}{prompt, generationConfig}

	header := http.Header{}
	header.Set("X-Request-ID", requestID)
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	log := c.logger.With(zap.String("request_id", requestID))
	r, err := c.do(ctx, c.generate, http.MethodPost, PathGenerate, payload, header)
	if err != nil {
		log.Warn("generate failed", zap.Error(err))
		return "", err
	}

	switch r.status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", ErrUnauthorized
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	}

	var env envelope
	decodeErr := sonic.Unmarshal(r.body, &env)
	if !r.ok() {
		apiErr := &APIError{Status: r.status}
		if decodeErr == nil {
			apiErr.Message = env.errorMessage()
		}
		log.Warn("generate rejected", zap.Int("status", r.status))
		return "", apiErr
	}
	if decodeErr != nil || !env.Success {
		return "", ErrInvalidResponse
	}
	var text string
	if err := sonic.Unmarshal(env.Data, &text); err != nil {
		return "", ErrInvalidResponse
	}
	return text, nil
}

// Login exchanges credentials for a session.
func (c *BackendClient) Login(ctx context.Context, email, password string) (string, protocol.User, error) {
	return c.authenticate(ctx, PathLogin, map[string]string{"email": email, "password": password})
}

// Register creates an account and returns its session.
func (c *BackendClient) Register(ctx context.Context, name, email, password string) (string, protocol.User, error) {
	return c.authenticate(ctx, PathRegister, map[string]string{"name": name, "email": email, "password": password})
}

func (c *BackendClient) authenticate(ctx context.Context, path string, payload map[string]string) (string, protocol.User, error) {
	r, err := c.do(ctx, c.plain, http.MethodPost, path, payload, nil)
	if err != nil {
		return "", protocol.User{}, err
	}

	var env envelope
	decodeErr := sonic.Unmarshal(r.body, &env)
	if !r.ok() {
		msg := ""
		if decodeErr == nil {
			msg = env.errorMessage()
		}
		if msg == "" {
			msg = fmt.Sprintf("Request failed with status %d", r.status)
		}
		return "", protocol.User{}, &APIError{Status: r.status, Message: msg}
	}
	if decodeErr != nil {
		return "", protocol.User{}, ErrInvalidResponse
	}

	var data struct {
		Token string         `json:"token"`
		User  *protocol.User `json:"user"`
	}
	if len(env.Data) == 0 || sonic.Unmarshal(env.Data, &data) != nil || data.Token == "" || data.User == nil {
		return "", protocol.User{}, ErrMissingSession
	}
	return data.Token, *data.User, nil
}

// Profile fetches the user behind token.
func (c *BackendClient) Profile(ctx context.Context, token string) (protocol.User, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	r, err := c.do(ctx, c.plain, http.MethodGet, PathProfile, nil, header)
	if err != nil {
		return protocol.User{}, err
	}

	var env envelope
	decodeErr := sonic.Unmarshal(r.body, &env)
	if !r.ok() {
		msg := ""
		if decodeErr == nil {
			msg = env.errorMessage()
		}
		if msg == "" {
			msg = fmt.Sprintf("Failed to fetch profile (%d)", r.status)
		}
		return protocol.User{}, &APIError{Status: r.status, Message: msg}
	}

	var data struct {
		User *protocol.User `json:"user"`
	}
	if decodeErr != nil || len(env.Data) == 0 || sonic.Unmarshal(env.Data, &data) != nil || data.User == nil {
		return protocol.User{}, ErrInvalidProfile
	}
	return *data.User, nil
}

// Health fetches the relay status and classifies it. HTML status pages are
// read through their #status[data-status] element.
func (c *BackendClient) Health(ctx context.Context) (protocol.Health, error) {
	if c.healthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.healthTimeout)
		defer cancel()
	}

	header := http.Header{}
	header.Set("Accept", "application/json, text/html;q=0.9")
	r, err := c.do(ctx, c.plain, http.MethodGet, PathHealth, nil, header)
	if err != nil {
		return protocol.HealthOffline, err
	}

	status, err := statusFromBody(r)
	if err != nil {
		return protocol.HealthOffline, err
	}
	if !r.ok() || status == "" {
		return protocol.HealthOffline, fmt.Errorf("Health check failed (%d)", r.status)
	}
	return ClassifyHealth(status), nil
}

func statusFromBody(r reply) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.contentType)
	if mediaType == "text/html" {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.body))
		if err != nil {
			return "", fmt.Errorf("parse status page: %w", err)
		}
		el := doc.Find("#status").First()
		if status, ok := el.Attr("data-status"); ok {
			return status, nil
		}
		return strings.TrimSpace(el.Text()), nil
	}

	var body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := sonic.Unmarshal(r.body, &body); err != nil {
		return "", ErrInvalidResponse
	}
	if body.Status == "" && body.Message != "" && !r.ok() {
		return "", errors.New(body.Message)
	}
	return body.Status, nil
}

// ClassifyHealth maps a relay status string to a coarse health value.
func ClassifyHealth(status string) protocol.Health {
	s := strings.ToLower(strings.TrimSpace(status))
	switch {
	case s == "ready to assist" || strings.Contains(s, "operational"):
		return protocol.HealthOnline
	case strings.Contains(s, "degrad") || strings.Contains(s, "maintenance"):
		return protocol.HealthWarning
	default:
		return protocol.HealthOffline
	}
}

// zapLeveled adapts the logger to retryablehttp.LeveledLogger.
type zapLeveled struct {
	s *zap.SugaredLogger
}

func (l zapLeveled) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l zapLeveled) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l zapLeveled) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l zapLeveled) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
