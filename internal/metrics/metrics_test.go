// v0
// internal/metrics/metrics_test.go
package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nrgchamp/dashboard/internal/breaker"
)

func TestCountersAndGauges(t *testing.T) {
	m := New()
	m.ObserveCall("/api/cities/live", "ok", 20*time.Millisecond)
	m.OpCompleted("load_cities", "ok")
	m.OpDropped("predict")
	m.OpDropped("predict")
	m.SetBusy(true)
	m.SetHistorySize(7)
	m.NotificationRaised("error")
	m.BreakerChanged("backend", breaker.Closed, breaker.Open)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendCalls.WithLabelValues("/api/cities/live", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.opsDropped.WithLabelValues("predict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.busy))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.historySize))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cbState.WithLabelValues("backend")))

	m.SetBusy(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.busy))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCall("x", "ok", time.Second)
		m.SetBusy(true)
		m.OpDropped("x")
		m.StreamClients(1)
	})
}

func TestWrapHandlerAndExposition(t *testing.T) {
	m := New()
	h := m.WrapHandler("/dashboard", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/dashboard", "418")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "http_requests_total"))
}
