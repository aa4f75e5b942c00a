// v0
// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nrgchamp/dashboard/internal/breaker"
)

// Metrics owns a private registry so several instances can coexist in
// tests. All methods are safe on a nil receiver.
type Metrics struct {
	reg *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	backendDuration   *prometheus.HistogramVec
	backendCalls      *prometheus.CounterVec
	opsTotal          *prometheus.CounterVec
	opsDropped        *prometheus.CounterVec
	busy              prometheus.Gauge
	historySize       prometheus.Gauge
	notifications     *prometheus.CounterVec
	streamClients     prometheus.Gauge
	cbState           *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_backend_duration_seconds",
			Help:    "Histogram of backend call durations by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_backend_calls_total",
			Help: "Backend calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		opsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_operations_total",
			Help: "Completed dashboard operations by name and outcome.",
		}, []string{"op", "outcome"}),
		opsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_operations_dropped_total",
			Help: "Gated operations skipped because another one was in flight.",
		}, []string{"op"}),
		busy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_busy",
			Help: "1 while a gated operation is in flight.",
		}),
		historySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_history_entries",
			Help: "Entries currently held in the prediction history.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_notifications_total",
			Help: "Notifications raised by severity.",
		}, []string{"severity"}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_stream_clients",
			Help: "Connected websocket viewers.",
		}),
		cbState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cb_state",
			Help: "Circuit breaker state gauge (0 closed, 1 half, 2 open).",
		}, []string{"target"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.backendDuration,
		m.backendCalls,
		m.opsTotal,
		m.opsDropped,
		m.busy,
		m.historySize,
		m.notifications,
		m.streamClients,
		m.cbState,
	)
	return m
}

// Registry exposes the registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// ObserveCall records one backend round trip.
func (m *Metrics) ObserveCall(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.backendDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	m.backendCalls.WithLabelValues(endpoint, outcome).Inc()
}

func (m *Metrics) OpCompleted(op, outcome string) {
	if m == nil {
		return
	}
	m.opsTotal.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) OpDropped(op string) {
	if m == nil {
		return
	}
	m.opsDropped.WithLabelValues(op).Inc()
}

func (m *Metrics) SetBusy(busy bool) {
	if m == nil {
		return
	}
	if busy {
		m.busy.Set(1)
		return
	}
	m.busy.Set(0)
}

func (m *Metrics) SetHistorySize(n int) {
	if m == nil {
		return
	}
	m.historySize.Set(float64(n))
}

func (m *Metrics) NotificationRaised(severity string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(severity).Inc()
}

func (m *Metrics) StreamClients(delta int) {
	if m == nil {
		return
	}
	m.streamClients.Add(float64(delta))
}

// BreakerChanged matches breaker.OnStateChange.
func (m *Metrics) BreakerChanged(name string, _, to breaker.State) {
	if m == nil {
		return
	}
	var v float64
	switch to {
	case breaker.HalfOpen:
		v = 1
	case breaker.Open:
		v = 2
	}
	m.cbState.WithLabelValues(name).Set(v)
}
