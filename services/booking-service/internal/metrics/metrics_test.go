package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveBooking("confirmed")
	m.ObserveBooking("confirmed")
	m.ObserveBooking("conflict")
	m.ObservePublished("booking.appointment.booked.v1")
	m.ObserveRateLimited("/api/v1/book")
	m.ObserveAvailability("day", 3*time.Millisecond)

	if got := testutil.ToFloat64(m.bookings.WithLabelValues("confirmed")); got != 2 {
		t.Fatalf("expected 2 confirmed bookings, got %v", got)
	}
	if got := testutil.ToFloat64(m.bookings.WithLabelValues("conflict")); got != 1 {
		t.Fatalf("expected 1 conflict, got %v", got)
	}
	if got := testutil.ToFloat64(m.published.WithLabelValues("booking.appointment.booked.v1")); got != 1 {
		t.Fatalf("expected 1 published event, got %v", got)
	}
	if got := testutil.CollectAndCount(m.availability); got != 1 {
		t.Fatalf("expected 1 histogram series, got %d", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveBooking("confirmed")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), `booking_bookings_total{result="confirmed"} 1`) {
		t.Fatalf("expected booking counter in output, got:\n%s", body)
	}
}
