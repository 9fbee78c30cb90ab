package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveConnection("post", "ok", 3, time.Millisecond)
		m.ObserveLoaderFetch("post", 2, 1)
		m.ObserveCache("post", true)
	})
}

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveConnection("post", "ok", 3, time.Millisecond)
	m.ObserveConnection("post", "empty", 0, time.Millisecond)
	m.ObserveLoaderFetch("user", 4, 1)
	m.ObserveCache("user", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.connectionsTotal.WithLabelValues("post", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connectionsTotal.WithLabelValues("post", "empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loaderFetches.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loaderMissing.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheRequests.WithLabelValues("user", "miss")))
}
