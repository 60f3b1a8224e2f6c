package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/heysagnik/chikki/internal/infrastructure/logging"
	"github.com/heysagnik/chikki/internal/infrastructure/monitoring"
	"github.com/heysagnik/chikki/internal/infrastructure/resilience"
)

const logBodyLimit = 512

// Options configures a Client.
type Options struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	// QPS caps outbound calls; zero means unlimited.
	QPS        float64
	HTTPClient *http.Client
	Logger     *logging.Logger
	Metrics    *monitoring.Metrics
}

// Client calls the generation API. It never retries; failures are reported
// once and the breaker decides when to stop calling.
type Client struct {
	resty    *resty.Client
	endpoint string
	apiKey   string
	timeout  time.Duration
	limiter  *rate.Limiter
	breaker  *resilience.Breaker
	logger   *logging.Logger
	metrics  *monitoring.Metrics
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content       `json:"contents"`
	GenerationConfig json.RawMessage `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// New creates a generation API client.
func New(opts Options) *Client {
	logger := logging.OrNop(opts.Logger).Named("gemini")

	r := resty.New()
	if opts.HTTPClient != nil {
		r = resty.NewWithClient(opts.HTTPClient)
	}
	r.SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "chikki-relay/1.0")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.QPS > 0 {
		burst := int(opts.QPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.QPS), burst)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	c := &Client{
		resty:    r,
		endpoint: opts.Endpoint,
		apiKey:   opts.APIKey,
		timeout:  timeout,
		limiter:  limiter,
		logger:   logger,
		metrics:  opts.Metrics,
	}

	c.breaker = resilience.New("gemini", resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.6)
		},
		IsFailure: isBreakerFailure,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if c.metrics != nil {
				c.metrics.SetBreakerState(int(to))
			}
		},
	})

	return c
}

// BreakerState reports the upstream circuit state.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// Generate sends prompt (and the caller's generationConfig, passed through
// untouched) to the API and returns the first candidate's text, trimmed.
func (c *Client) Generate(ctx context.Context, prompt string, generationConfig json.RawMessage) (string, error) {
	timer := monitoring.NewTimer(c.metrics)

	text, err := resilience.Execute(c.breaker, func() (string, error) {
		return c.call(ctx, prompt, generationConfig)
	})

	timer.Stop(outcome(err))

	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return text, err
}

func (c *Client) call(ctx context.Context, prompt string, generationConfig json.RawMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", c.classifyTransport(ctx, err)
	}

	body := generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig,
	}

	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(body).
		Post(c.endpoint)
	if err != nil {
		return "", c.classifyTransport(ctx, err)
	}

	if !resp.IsSuccess() {
		c.logger.Warn("Generation API returned an error",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", logging.Preview(string(resp.Body()), logBodyLimit)),
		)
		return "", &UpstreamError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	var parsed generateResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		c.logger.Warn("Generation API returned malformed JSON",
			zap.String("body", logging.Preview(string(resp.Body()), logBodyLimit)),
		)
		return "", ErrMissingText
	}

	text := extractText(parsed)
	if text == "" {
		c.logger.Warn("Generation API response missing expected text structure",
			zap.String("body", logging.Preview(string(resp.Body()), logBodyLimit)),
		)
		return "", ErrMissingText
	}

	return text, nil
}

func (c *Client) classifyTransport(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("generation API request failed: %w", err)
}

func extractText(resp generateResponse) string {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
}

func outcome(err error) string {
	var upstream *UpstreamError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrMissingText):
		return "missing_text"
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return "breaker_open"
	case errors.As(err, &upstream):
		return "upstream_error"
	default:
		return "transport_error"
	}
}
