package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Environments recognised by NODE_ENV.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config holds all relay server configuration.
type Config struct {
	Server    ServerConfig
	Gemini    GeminiConfig
	CORS      CORSConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string `envconfig:"PORT" default:"3000"`
	Host         string `envconfig:"HOST" default:"0.0.0.0"`
	Environment  string `envconfig:"NODE_ENV" default:"development"`
	Version      string `envconfig:"APP_VERSION" default:"1.0.0"`
	APIKey       string `envconfig:"RELAY_API_KEY"`
	MaxBodyBytes int64  `envconfig:"MAX_BODY_BYTES" default:"1048576"`
}

// GeminiConfig holds the upstream generation API settings. Both the key and
// the endpoint are mandatory.
type GeminiConfig struct {
	APIKey   string        `envconfig:"GEMINI_API_KEY" required:"true"`
	Endpoint string        `envconfig:"GEMINI_API_ENDPOINT" required:"true"`
	Timeout  time.Duration `envconfig:"GEMINI_TIMEOUT" default:"45s"`
	// MaxQPS caps outbound calls; zero disables the cap.
	MaxQPS float64 `envconfig:"GEMINI_MAX_QPS" default:"0"`
}

// CORSConfig holds the origin allow-list. An empty list allows every origin.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds per-IP rate limiting for /api routes.
type RateLimitConfig struct {
	Window  time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"15m"`
	Max     int           `envconfig:"RATE_LIMIT_MAX" default:"100"`
	Enabled bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// AuthConfig controls the in-memory development auth API.
type AuthConfig struct {
	Enabled  bool          `envconfig:"AUTH_ENABLED" default:"true"`
	TokenTTL time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"24h"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.CORS.AllowedOrigins = trimAll(cfg.CORS.AllowedOrigins)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns default configuration. The Gemini section is left empty
// and must be filled in by the caller.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "3000",
			Host:         "0.0.0.0",
			Environment:  EnvDevelopment,
			Version:      "1.0.0",
			MaxBodyBytes: 1 << 20,
		},
		Gemini: GeminiConfig{
			Timeout: 45 * time.Second,
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			Window:  15 * time.Minute,
			Max:     100,
			Enabled: true,
		},
		Auth: AuthConfig{
			Enabled:  true,
			TokenTTL: 24 * time.Hour,
		},
	}
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Gemini.APIKey) == "" || strings.TrimSpace(c.Gemini.Endpoint) == "" {
		return errors.New("GEMINI_API_KEY and GEMINI_API_ENDPOINT must be set")
	}
	if c.Gemini.Timeout <= 0 {
		return errors.New("GEMINI_TIMEOUT must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// IsProduction reports whether NODE_ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == EnvProduction || env == "prod"
}

// ClientConfig configures the extension-side background layer.
type ClientConfig struct {
	APIURL        string        `envconfig:"API_URL" default:"http://localhost:3000"`
	APIKey        string        `envconfig:"API_KEY"`
	Timeout       time.Duration `envconfig:"TIMEOUT" default:"10s"`
	HealthTimeout time.Duration `envconfig:"HEALTH_TIMEOUT" default:"5s"`
	MaxRetries    int           `envconfig:"MAX_RETRIES" default:"2"`
	RetryBackoff  time.Duration `envconfig:"RETRY_BACKOFF" default:"1s"`
	StateDir      string        `envconfig:"STATE_DIR"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"warn"`
}

// LoadClient loads the background configuration from CHIKKI_* variables.
func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.Process("chikki", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load client config: %w", err)
	}
	if cfg.MaxRetries < 0 {
		return nil, errors.New("CHIKKI_MAX_RETRIES must not be negative")
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.StateDir == "" {
		dir, err := DefaultStateDir()
		if err != nil {
			return nil, err
		}
		cfg.StateDir = dir
	}
	return &cfg, nil
}

// DefaultClient returns the background defaults with an explicit state dir.
func DefaultClient(stateDir string) *ClientConfig {
	return &ClientConfig{
		APIURL:        "http://localhost:3000",
		Timeout:       10 * time.Second,
		HealthTimeout: 5 * time.Second,
		MaxRetries:    2,
		RetryBackoff:  time.Second,
		StateDir:      stateDir,
		LogLevel:      "warn",
	}
}

// DefaultStateDir returns the per-user directory holding local storage.
func DefaultStateDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "chikki"), nil
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
