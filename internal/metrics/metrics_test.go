package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/i474232898/weather-telemetry/internal/weather"
)

func TestRecordAudit(t *testing.T) {
	m := New()
	m.RecordAudit(weather.AuditReport{Countries: 2, Cities: 5, Readings: 40, OrphanCities: 1, OrphanReadings: 3})
	m.RecordAuditFailure()

	if got := testutil.ToFloat64(m.entities.WithLabelValues(weather.ReadingsCollection)); got != 40 {
		t.Fatalf("expected 40 readings, got %v", got)
	}
	if got := testutil.ToFloat64(m.orphans.WithLabelValues(weather.CitiesCollection)); got != 1 {
		t.Fatalf("expected 1 orphan city, got %v", got)
	}
	if got := testutil.ToFloat64(m.audits.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 failed audit, got %v", got)
	}
}

func TestHandlerExposesRequests(t *testing.T) {
	m := New()
	m.ObserveRequest("/api/countries/", http.MethodGet, http.StatusOK, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `weather_telemetry_http_requests_total{method="GET",route="/api/countries/",status="200"} 1`) {
		t.Fatalf("request counter missing from output:\n%s", body)
	}
}
