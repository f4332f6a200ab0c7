// Package monitoring provides Prometheus metrics for the lifecycle core.
//
// Metrics cover launches (by category and outcome), switch and terminate
// calls, published lifecycle events, hotkey signals, poller failures, and the
// HTTP/WebSocket surface. Collectors are registered once via promauto; the
// /metrics endpoint is served by promhttp.
package monitoring
