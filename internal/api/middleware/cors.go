package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig defines CORS configuration options.
type CORSConfig struct {
	// AllowOrigins is the allow-list. Empty allows every origin.
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig returns the relay's CORS configuration for the given
// allow-list.
func DefaultCORSConfig(origins []string) CORSConfig {
	return CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Content-Length",
			"Authorization",
			"Accept",
			"Origin",
			"X-API-Key",
			"X-Request-ID",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"RateLimit-Limit",
			"RateLimit-Remaining",
			"RateLimit-Reset",
		},
		AllowCredentials: len(origins) > 0,
		MaxAge:           12 * time.Hour,
	}
}

// CORS creates a CORS middleware. Requests from an origin outside the
// allow-list are rejected with 403 before reaching any handler.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	allowAll := len(cfg.AllowOrigins) == 0
	allowed := make(map[string]struct{}, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	handler := cors.New(cors.Config{
		AllowAllOrigins:        allowAll,
		AllowOrigins:           cfg.AllowOrigins,
		AllowMethods:           cfg.AllowMethods,
		AllowHeaders:           cfg.AllowHeaders,
		ExposeHeaders:          cfg.ExposeHeaders,
		AllowCredentials:       cfg.AllowCredentials && !allowAll,
		AllowBrowserExtensions: true,
		MaxAge:                 cfg.MaxAge,
	})

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if !allowAll && origin != "" && !sameOrigin(c.Request, origin) {
			if _, ok := allowed[strings.TrimRight(origin, "/")]; !ok {
				abortJSON(c, http.StatusForbidden, "Not allowed by CORS")
				return
			}
		}
		handler(c)
	}
}

func sameOrigin(r *http.Request, origin string) bool {
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}
