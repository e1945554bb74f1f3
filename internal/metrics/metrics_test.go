package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionAccounting(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, func() float64 { return 2 })

	m.RecordSessionStart("record")
	m.RecordSessionStart("record")
	m.RecordSessionEnd("record", "", 12)
	m.RecordSessionEnd("record", "exit_error", 3)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveSessions.WithLabelValues("record")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsStarted.WithLabelValues("record")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsStopped.WithLabelValues("record")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsFailed.WithLabelValues("record", "exit_error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProcessesRunning))
}

func TestRegistersOncePerRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg, func() float64 { return 0 })
	require.Panics(t, func() { New(reg, func() float64 { return 0 }) })
	require.NotPanics(t, func() { New(prometheus.NewRegistry(), func() float64 { return 0 }) })
}
