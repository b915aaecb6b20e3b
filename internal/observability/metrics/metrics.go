package metrics

import "github.com/prometheus/client_golang/prometheus"

// SlotComputeMetricName is the fully-qualified histogram the dashboard reads
// back through the prometheus gatherer.
const SlotComputeMetricName = "agenda_scheduling_slot_compute_seconds"

// BookingMetrics exposes counters/histograms for the booking flows.
type BookingMetrics struct {
	appointmentsTotal  *prometheus.CounterVec
	slotComputeSeconds prometheus.Histogram
	calendarSyncTotal  *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		appointmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "appointments",
			Name:      "mutations_total",
			Help:      "Total appointment mutations by action",
		}, []string{"action"}),
		slotComputeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agenda",
			Subsystem: "scheduling",
			Name:      "slot_compute_seconds",
			Help:      "Latency of slot-availability computation",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
		calendarSyncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "calendar",
			Name:      "sync_total",
			Help:      "Total Google Calendar sync attempts",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.appointmentsTotal, m.slotComputeSeconds, m.calendarSyncTotal)
	return m
}

func (m *BookingMetrics) ObserveAppointment(action string) {
	if m == nil {
		return
	}
	m.appointmentsTotal.WithLabelValues(action).Inc()
}

func (m *BookingMetrics) ObserveSlotCompute(seconds float64) {
	if m == nil {
		return
	}
	m.slotComputeSeconds.Observe(seconds)
}

func (m *BookingMetrics) ObserveCalendarSync(status string) {
	if m == nil {
		return
	}
	m.calendarSyncTotal.WithLabelValues(status).Inc()
}
