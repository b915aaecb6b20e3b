package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAppointmentCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveAppointment("created")
	m.ObserveAppointment("created")
	m.ObserveAppointment("cancelled")

	got := testutil.ToFloat64(m.appointmentsTotal.WithLabelValues("created"))
	if got != 2 {
		t.Fatalf("expected 2 created mutations, got %v", got)
	}
	got = testutil.ToFloat64(m.appointmentsTotal.WithLabelValues("cancelled"))
	if got != 1 {
		t.Fatalf("expected 1 cancelled mutation, got %v", got)
	}
}

func TestObserveCalendarSync(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveCalendarSync("ok")
	m.ObserveCalendarSync("error")
	m.ObserveCalendarSync("error")

	if got := testutil.ToFloat64(m.calendarSyncTotal.WithLabelValues("error")); got != 2 {
		t.Fatalf("expected 2 errors, got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveAppointment("created")
	m.ObserveSlotCompute(0.001)
	m.ObserveCalendarSync("ok")
}

func TestSlotComputeHistogramRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveSlotCompute(0.002)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() == SlotComputeMetricName {
			return
		}
	}
	t.Fatalf("expected %s metric family", SlotComputeMetricName)
}
