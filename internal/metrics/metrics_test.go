package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Transition("", "pending")
	m.Transition("pending", "approved")
	m.Transition("pending", "approved")
	m.GateFailure("departure_window")
	m.Notification("success", true)
	m.Notification("success", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("new", "pending")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("pending", "approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gates.WithLabelValues("departure_window")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.published.WithLabelValues("success", "publish_failed")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.GateFailure("documents")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tripdesk_trip_gate_failures_total{gate="documents"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
