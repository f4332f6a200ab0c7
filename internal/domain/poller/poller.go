// Package poller runs the periodic liveness sweep over the instance
// registry, slowing down when the probe keeps failing so a wedged platform
// layer is not hammered at full rate.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/monitoring"
)

// Probe is one sweep. An error counts toward the slowdown threshold.
type Probe func(ctx context.Context) error

// Config tunes the sweep cadence.
type Config struct {
	Interval         time.Duration // nominal cadence
	SlowInterval     time.Duration // cadence after repeated failures
	FailureThreshold int           // consecutive failures before slowing
}

// Default returns the production cadence.
func Default() Config {
	return Config{
		Interval:         2 * time.Second,
		SlowInterval:     5 * time.Second,
		FailureThreshold: 3,
	}
}

// Poller drives a Probe on a fixed cadence that degrades to SlowInterval
// after FailureThreshold consecutive failures and recovers on the next
// success.
type Poller struct {
	probe   Probe
	cfg     Config
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu       sync.Mutex
	wait     *backoff.ConstantBackOff
	failures int
	slow     bool
}

// New creates a poller. Zero or negative config fields fall back to the
// defaults.
func New(probe Probe, cfg Config, logger *logging.Logger) *Poller {
	def := Default()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.SlowInterval <= 0 {
		cfg.SlowInterval = def.SlowInterval
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	return &Poller{
		probe:  probe,
		cfg:    cfg,
		logger: logger.Named("poller"),
		wait:   backoff.NewConstantBackOff(cfg.Interval),
	}
}

// WithMetrics adds metrics tracking.
func (p *Poller) WithMetrics(m *monitoring.Metrics) *Poller {
	p.metrics = m
	return p
}

// Run blocks until ctx is canceled, probing on the current cadence. Returns
// nil on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	timer := time.NewTimer(p.next())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			p.observe(p.probe(ctx))
			timer.Reset(p.next())
		}
	}
}

// Slow reports whether the poller is in the degraded cadence.
func (p *Poller) Slow() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slow
}

func (p *Poller) next() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wait.NextBackOff()
}

// observe folds one probe result into the cadence state machine.
func (p *Poller) observe(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err == nil {
		if p.slow {
			p.logger.Info("probe recovered, back to nominal cadence",
				zap.Duration("interval", p.cfg.Interval))
		}
		p.failures = 0
		p.slow = false
		p.wait.Interval = p.cfg.Interval
		return
	}

	p.failures++
	if p.metrics != nil {
		p.metrics.PollFailures.Inc()
	}
	p.logger.Warn("probe failed",
		zap.Int("consecutive", p.failures),
		zap.Error(err),
	)

	if p.failures >= p.cfg.FailureThreshold && !p.slow {
		p.slow = true
		p.wait.Interval = p.cfg.SlowInterval
		p.logger.Warn("probe keeps failing, slowing cadence",
			zap.Duration("interval", p.cfg.SlowInterval))
	}
}
