package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for booking and status flows.
type SchedulingMetrics struct {
	bookingsTotal    *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	resolveLatency   prometheus.Histogram
	relayedTotal     *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking requests by outcome",
		}, []string{"outcome"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "status_transitions_total",
			Help:      "Status change requests by target status and outcome",
		}, []string{"target", "outcome"}),
		resolveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "resolve_slots_seconds",
			Help:      "Latency of slot resolution including storage reads",
			Buckets:   prometheus.DefBuckets,
		}),
		relayedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "events",
			Name:      "relayed_total",
			Help:      "Outbox events handed to the stream, by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.transitionsTotal, m.resolveLatency, m.relayedTotal)
	return m
}

func (m *SchedulingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulingMetrics) ObserveTransition(target, outcome string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(target, outcome).Inc()
}

func (m *SchedulingMetrics) ObserveResolve(seconds float64) {
	if m == nil {
		return
	}
	m.resolveLatency.Observe(seconds)
}

// ObserveRelay matches the events.Relay OnBatch callback.
func (m *SchedulingMetrics) ObserveRelay(delivered, failed int) {
	if m == nil {
		return
	}
	m.relayedTotal.WithLabelValues("delivered").Add(float64(delivered))
	m.relayedTotal.WithLabelValues("failed").Add(float64(failed))
}
