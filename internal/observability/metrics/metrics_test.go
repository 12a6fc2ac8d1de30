package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSchedulingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulingMetrics(reg)

	m.ObserveBooking("created")
	m.ObserveBooking("created")
	m.ObserveBooking("conflict")
	m.ObserveTransition("completed", "ok")
	m.ObserveResolve(0.002)
	m.ObserveRelay(3, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitionsTotal.WithLabelValues("completed", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.relayedTotal.WithLabelValues("delivered")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.resolveLatency))
}

func TestSchedulingMetricsNilSafe(t *testing.T) {
	var m *SchedulingMetrics
	m.ObserveBooking("created")
	m.ObserveTransition("cancelled", "illegal_transition")
	m.ObserveResolve(0.1)
	m.ObserveRelay(1, 0)
}
