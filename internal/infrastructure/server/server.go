package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/heysagnik/chikki/internal/api/http"
	"github.com/heysagnik/chikki/internal/api/middleware"
	"github.com/heysagnik/chikki/internal/domain/auth"
	"github.com/heysagnik/chikki/internal/infrastructure/config"
	"github.com/heysagnik/chikki/internal/infrastructure/logging"
	"github.com/heysagnik/chikki/internal/infrastructure/monitoring"
	"github.com/heysagnik/chikki/internal/providers/gemini"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// Option customises a Server. Used by tests to swap dependencies.
type Option func(*deps)

type deps struct {
	generator api.Generator
	metrics   *monitoring.Metrics
}

// WithGenerator replaces the upstream client.
func WithGenerator(g api.Generator) Option {
	return func(d *deps) { d.generator = g }
}

// WithMetrics supplies the metrics registry.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

// New creates a relay server instance.
func New(cfg *config.Config, logger *logging.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: nil config")
	}
	logger = logging.OrNop(logger)

	var d deps
	for _, opt := range opts {
		opt(&d)
	}
	if d.metrics == nil {
		d.metrics = monitoring.NewMetrics()
	}
	if d.generator == nil {
		d.generator = gemini.New(gemini.Options{
			Endpoint: cfg.Gemini.Endpoint,
			APIKey:   cfg.Gemini.APIKey,
			Timeout:  cfg.Gemini.Timeout,
			QPS:      cfg.Gemini.MaxQPS,
			Logger:   logger,
			Metrics:  d.metrics,
		})
	}

	logger.Info("Initializing relay",
		zap.String("port", cfg.Server.Port),
		zap.String("environment", cfg.Server.Environment),
		zap.Int("cors_origins", len(cfg.CORS.AllowedOrigins)),
		zap.Bool("auth", cfg.Auth.Enabled),
	)

	var accounts api.Accounts
	if cfg.Auth.Enabled {
		accounts = auth.NewService(auth.Options{TokenTTL: cfg.Auth.TokenTTL, Logger: logger})
	}

	handlers := api.NewHandlers(d.generator, accounts, api.ServiceInfo{
		Version:     cfg.Server.Version,
		Environment: cfg.Server.Environment,
		Production:  cfg.IsProduction(),
		Started:     d.metrics.StartTime(),
	}, logger, d.metrics)

	router := newRouter(cfg, logger, d.metrics, handlers, accounts != nil)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	return &Server{
		router: router,
		http: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			// Upstream calls may take the full Gemini timeout.
			WriteTimeout: cfg.Gemini.Timeout + 15*time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger:  logger,
		config:  cfg,
		metrics: d.metrics,
	}, nil
}

func newRouter(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics, h *api.Handlers, withAuth bool) *gin.Engine {
	production := cfg.IsProduction()
	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger, production))
	router.Use(middleware.ErrorHandler(logger, production))
	router.Use(middleware.Logger(logger))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.AllowedOrigins)))
	router.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	apiMiddleware := make([]gin.HandlerFunc, 0, 2)
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("max", cfg.RateLimit.Max),
			zap.Duration("window", cfg.RateLimit.Window),
		)
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(middleware.RateLimitConfig{
			Window:    cfg.RateLimit.Window,
			Max:       cfg.RateLimit.Max,
			OnLimited: func(*gin.Context) { metrics.IncRateLimited() },
		}))
	}
	apiMiddleware = append(apiMiddleware, middleware.APIKey(cfg.Server.APIKey))

	router.GET("/", h.Root)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	legacy := append(append([]gin.HandlerFunc{}, apiMiddleware...), h.Generate)
	router.POST("/generate", legacy...)

	apiGroup := router.Group("/api", apiMiddleware...)
	apiGroup.POST("/generate", h.Generate)
	if withAuth {
		authGroup := apiGroup.Group("/auth")
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/me", h.Me)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Not Found"})
	})

	return router
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return s.Close()
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shut down cleanly", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	_ = s.logger.Sync()
	return nil
}
