package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the lifecycle core.
type Metrics struct {
	// Lifecycle metrics
	InstancesActive prometheus.Gauge
	LaunchesTotal   *prometheus.CounterVec
	LaunchDuration  *prometheus.HistogramVec
	SwitchesTotal   *prometheus.CounterVec
	TerminatesTotal *prometheus.CounterVec

	// Event metrics
	EventsPublished *prometheus.CounterVec

	// Hotkey metrics
	HotkeySignals        *prometheus.CounterVec
	HotkeyBindingsActive prometheus.Gauge

	// Poller metrics
	PollFailures prometheus.Counter

	// HTTP / WebSocket metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	WSConnections   prometheus.Gauge

	Uptime prometheus.GaugeFunc
}

// NewMetrics creates the collector on the process-default registry.
func NewMetrics() *Metrics {
	return NewMetricsOn(prometheus.DefaultRegisterer)
}

// NewMetricsOn creates the collector on reg. Separate registries let more
// than one assembly live in a process without duplicate-registration panics.
func NewMetricsOn(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	start := time.Now()

	m := &Metrics{
		InstancesActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "launcher_instances_active",
			Help: "Number of non-terminated application instances",
		}),
		LaunchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "launcher_launches_total",
			Help: "Total launch attempts",
		}, []string{"category", "status"}),
		LaunchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "launcher_launch_duration_seconds",
			Help:    "Wall-clock launch duration",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"category"}),
		SwitchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "launcher_switches_total",
			Help: "Total switch attempts",
		}, []string{"status"}),
		TerminatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "launcher_terminates_total",
			Help: "Total terminate calls",
		}, []string{"forced"}),

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "launcher_events_published_total",
			Help: "Coordinator-wide lifecycle events published",
		}, []string{"kind"}),

		HotkeySignals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "launcher_hotkey_signals_total",
			Help: "Hotkey signals dispatched by semantic command",
		}, []string{"command"}),
		HotkeyBindingsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "launcher_hotkey_bindings_active",
			Help: "OS hotkey bindings currently registered",
		}),

		PollFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "launcher_poll_failures_total",
			Help: "Instance-count poll failures",
		}),

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "launcher_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "launcher_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "path"}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "launcher_ws_connections",
			Help: "Active WebSocket event-stream connections",
		}),

		// Computed at scrape time: no background goroutine to leak.
		Uptime: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "launcher_uptime_seconds",
			Help: "Service uptime in seconds",
		}, func() float64 {
			return time.Since(start).Seconds()
		}),
	}

	return m
}

// RecordLaunch records a launch attempt and its duration on success.
func (m *Metrics) RecordLaunch(category, status string, duration time.Duration) {
	m.LaunchesTotal.WithLabelValues(category, status).Inc()
	if status == "ok" {
		m.LaunchDuration.WithLabelValues(category).Observe(duration.Seconds())
	}
}

// RecordSwitch records a switch attempt.
func (m *Metrics) RecordSwitch(ok bool) {
	status := "ok"
	if !ok {
		status = "stale"
	}
	m.SwitchesTotal.WithLabelValues(status).Inc()
}

// RecordTerminate records a terminate call.
func (m *Metrics) RecordTerminate(force bool) {
	forced := "false"
	if force {
		forced = "true"
	}
	m.TerminatesTotal.WithLabelValues(forced).Inc()
}

// RecordEvent records a published lifecycle event.
func (m *Metrics) RecordEvent(kind string) {
	m.EventsPublished.WithLabelValues(kind).Inc()
}

// RecordHotkeySignal records a dispatched semantic hotkey command.
func (m *Metrics) RecordHotkeySignal(command string) {
	m.HotkeySignals.WithLabelValues(command).Inc()
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
