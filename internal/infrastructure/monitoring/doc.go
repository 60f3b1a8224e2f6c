/*
Package monitoring provides Prometheus metrics for the relay server.

# Overview

Each Metrics value owns a private registry, so tests can build as many relays
as they like without colliding on global collector names.

# Metrics

- HTTP request metrics (count, latency, sizes) labelled by route template
- Generation API calls by outcome and latency
- Accepted prompt length
- Rate limiter rejections
- Upstream circuit breaker state
- Auth API events
- Uptime

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics)
	// ... call the generation API ...
	timer.Stop("success")
*/
package monitoring
