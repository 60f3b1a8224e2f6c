package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the relay.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Generation metrics
	UpstreamCalls    *prometheus.CounterVec
	UpstreamDuration prometheus.Histogram
	PromptLength     prometheus.Histogram
	RateLimited      prometheus.Counter
	BreakerState     prometheus.Gauge

	// Auth metrics
	AuthEvents *prometheus.CounterVec

	Uptime    prometheus.GaugeFunc
	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds counters exposed on the status page.
type Snapshot struct {
	TotalRequests    int64
	TotalErrors      int64
	TotalGenerations int64
	FailedUpstream   int64
}

// NewMetrics creates a collector backed by its own registry, so several
// relays (tests) can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		UpstreamCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_upstream_calls_total",
				Help: "Calls to the generation API by outcome",
			},
			[]string{"outcome"},
		),
		UpstreamDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "relay_upstream_duration_seconds",
				Help:    "Generation API latency in seconds",
				Buckets: []float64{.25, .5, 1, 2, 4, 8, 16, 32, 45},
			},
		),
		PromptLength: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "relay_prompt_length_chars",
				Help:    "Accepted prompt length in characters",
				Buckets: []float64{50, 200, 1000, 5000, 10000, 15000},
			},
		),
		RateLimited: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
		),
		BreakerState: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_upstream_breaker_state",
				Help: "Upstream circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
		),
		AuthEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_auth_events_total",
				Help: "Auth API events by kind and outcome",
			},
			[]string{"event", "outcome"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "relay_uptime_seconds",
			Help: "Relay uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler serves the Prometheus exposition for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// StartTime returns when the collector was created.
func (m *Metrics) StartTime() time.Time {
	return m.startTime
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordUpstreamCall records one generation API call and its outcome
// ("success", "timeout", "upstream_error", "missing_text", "breaker_open").
func (m *Metrics) RecordUpstreamCall(outcome string, duration time.Duration) {
	m.UpstreamCalls.WithLabelValues(outcome).Inc()
	m.UpstreamDuration.Observe(duration.Seconds())

	m.mu.Lock()
	if outcome == "success" {
		m.snapshot.TotalGenerations++
	} else {
		m.snapshot.FailedUpstream++
	}
	m.mu.Unlock()
}

// ObservePrompt records the length of an accepted prompt.
func (m *Metrics) ObservePrompt(chars int) {
	m.PromptLength.Observe(float64(chars))
}

// IncRateLimited counts a rate limited request.
func (m *Metrics) IncRateLimited() {
	m.RateLimited.Inc()
}

// SetBreakerState publishes the upstream breaker state.
func (m *Metrics) SetBreakerState(state int) {
	m.BreakerState.Set(float64(state))
}

// RecordAuthEvent counts a login/register/profile outcome.
func (m *Metrics) RecordAuthEvent(event, outcome string) {
	m.AuthEvents.WithLabelValues(event, outcome).Inc()
}

// Snapshot returns a copy of the running counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
