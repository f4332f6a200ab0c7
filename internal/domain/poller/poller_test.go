package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
)

func testConfig() Config {
	return Config{
		Interval:         5 * time.Millisecond,
		SlowInterval:     40 * time.Millisecond,
		FailureThreshold: 3,
	}
}

func TestSlowsAfterConsecutiveFailures(t *testing.T) {
	p := New(func(ctx context.Context) error { return errors.New("no response") },
		testConfig(), logging.NewDevelopment())

	for i := 0; i < 3; i++ {
		p.observe(p.probe(context.Background()))
	}
	assert.True(t, p.Slow())
	assert.Equal(t, 40*time.Millisecond, p.next())
}

func TestStaysFastBelowThreshold(t *testing.T) {
	p := New(func(ctx context.Context) error { return errors.New("no response") },
		testConfig(), logging.NewDevelopment())

	p.observe(errors.New("one"))
	p.observe(errors.New("two"))
	assert.False(t, p.Slow())
	assert.Equal(t, 5*time.Millisecond, p.next())
}

func TestSuccessResetsCadenceAndCount(t *testing.T) {
	p := New(nil, testConfig(), logging.NewDevelopment())

	p.observe(errors.New("one"))
	p.observe(errors.New("two"))
	p.observe(errors.New("three"))
	require.True(t, p.Slow())

	p.observe(nil)
	assert.False(t, p.Slow())
	assert.Equal(t, 5*time.Millisecond, p.next())

	// The failure streak restarts from zero after a success.
	p.observe(errors.New("again"))
	p.observe(errors.New("again"))
	assert.False(t, p.Slow())
}

func TestRunStopsOnCancel(t *testing.T) {
	var calls atomic.Int32
	p := New(func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, testConfig(), logging.NewDevelopment())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancel")
	}
	assert.Greater(t, calls.Load(), int32(0))
}

func TestDefaultsFillZeroConfig(t *testing.T) {
	p := New(nil, Config{}, logging.NewDevelopment())
	assert.Equal(t, 2*time.Second, p.cfg.Interval)
	assert.Equal(t, 5*time.Second, p.cfg.SlowInterval)
	assert.Equal(t, 3, p.cfg.FailureThreshold)
}
