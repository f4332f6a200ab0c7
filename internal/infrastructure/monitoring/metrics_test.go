package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeparateRegistriesCoexist(t *testing.T) {
	a := NewMetricsOn(prometheus.NewRegistry())
	// A second collector in the same process must not panic on duplicate
	// registration.
	b := NewMetricsOn(prometheus.NewRegistry())
	require.NotNil(t, a)
	require.NotNil(t, b)

	a.RecordLaunch("web", "ok", 10*time.Millisecond)
	a.RecordSwitch(true)
	b.RecordHotkeySignal("advance")
	b.RecordTerminate(false)
}

func TestUptimeComputedAtScrape(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetricsOn(reg)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "launcher_uptime_seconds")
}
