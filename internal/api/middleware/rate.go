package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines a fixed allowance per window, per client IP.
type RateLimitConfig struct {
	Window time.Duration
	Max    int
	// OnLimited is called for every rejected request.
	OnLimited func(c *gin.Context)
	// Now overrides the clock in tests.
	Now func() time.Time
}

// DefaultRateLimitConfig returns 100 requests per 15 minutes.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Window: 15 * time.Minute,
		Max:    100,
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit creates a per-IP token bucket that refills Max tokens per Window
// and allows a burst of Max. It sets the standard RateLimit-* headers;
// RateLimit-Reset is the number of seconds until the full allowance is back.
// Rejections also carry Retry-After, the wait for the next token.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Max <= 0 {
		cfg.Max = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	refill := cfg.Window / time.Duration(cfg.Max)
	every := rate.Every(refill)
	message := fmt.Sprintf("Too many requests from this IP, please try again after %s", humanWindow(cfg.Window))

	var (
		mu      sync.Mutex
		clients = make(map[string]*client)
		sweeps  int
	)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		t := now()

		mu.Lock()
		cl, ok := clients[ip]
		if !ok {
			cl = &client{limiter: rate.NewLimiter(every, cfg.Max)}
			clients[ip] = cl
		}
		cl.lastSeen = t
		allowed := cl.limiter.AllowN(t, 1)
		tokens := math.Max(0, cl.limiter.TokensAt(t))

		sweeps++
		if sweeps >= 1024 {
			sweeps = 0
			for key, other := range clients {
				if t.Sub(other.lastSeen) > cfg.Window {
					delete(clients, key)
				}
			}
		}
		mu.Unlock()

		h := c.Writer.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(cfg.Max))
		h.Set("RateLimit-Remaining", strconv.Itoa(int(math.Floor(tokens))))
		h.Set("RateLimit-Reset", strconv.Itoa(secondsFor(float64(cfg.Max)-tokens, refill)))

		if !allowed {
			h.Set("Retry-After", strconv.Itoa(max(1, secondsFor(1-tokens, refill))))
			if cfg.OnLimited != nil {
				cfg.OnLimited(c)
			}
			abortJSON(c, http.StatusTooManyRequests, message)
			return
		}

		c.Next()
	}
}

// secondsFor is how long, rounded up to whole seconds, the bucket takes to
// gain n tokens.
func secondsFor(n float64, refill time.Duration) int {
	if n <= 0 {
		return 0
	}
	return int(math.Ceil(n * refill.Seconds()))
}

func humanWindow(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return strconv.Itoa(m) + " minutes"
	}
	return d.String()
}
