// v0
// internal/httpapi/router.go
// Package httpapi exposes the dashboard regions and commands over HTTP and
// streams board updates over a websocket.
package httpapi

import (
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"nrgchamp/dashboard/internal/controller"
	"nrgchamp/dashboard/internal/metrics"
)

// Deps are the collaborators the routes need. Metrics may be nil.
type Deps struct {
	Controller *controller.Controller
	Health     *HealthState
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	// AllowedOrigins feeds the CORS handler; empty allows any origin.
	AllowedOrigins []string
}

type api struct {
	ctl     *controller.Controller
	health  *HealthState
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewRouter wires every route on a gorilla router.
func NewRouter(d Deps) *mux.Router {
	if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.Health == nil {
		d.Health = NewHealthState()
	}
	a := &api{ctl: d.Controller, health: d.Health, metrics: d.Metrics, log: d.Logger.With(slog.String("component", "http"))}

	r := mux.NewRouter()
	handle := func(path string, h http.HandlerFunc, methods ...string) {
		r.Handle(path, a.metrics.WrapHandler(path, h)).Methods(methods...)
	}

	handle("/health", healthLive, http.MethodGet)
	handle("/health/live", healthLive, http.MethodGet)
	handle("/health/ready", a.healthReady, http.MethodGet)

	handle("/dashboard", a.getBoard, http.MethodGet)
	handle("/dashboard/chart", a.getChart, http.MethodGet)
	handle("/dashboard/chart.png", a.getChartPNG, http.MethodGet)

	handle("/commands/refresh", a.postRefresh, http.MethodPost)
	handle("/commands/focus", a.postFocus, http.MethodPost)
	handle("/commands/dismiss", a.postDismiss, http.MethodPost)
	handle("/commands/save", a.postSave, http.MethodPost)
	handle("/commands/predict", a.postPredict, http.MethodPost)
	handle("/commands/selector", a.postSelector, http.MethodPost)
	handle("/commands/input", a.postInput, http.MethodPost)

	handle("/notifications", a.listNotifications, http.MethodGet)
	handle("/notifications/{id}", a.dismissNotification, http.MethodDelete)

	handle("/debug/history", a.getHistory, http.MethodGet)
	handle("/debug/history", a.clearHistory, http.MethodDelete)
	handle("/debug/chart", a.debugChart, http.MethodGet)
	handle("/debug/simulate", a.simulate, http.MethodGet)
	handle("/debug/refresh", a.debugRefresh, http.MethodPost)

	// The upgrade needs the raw writer, so the stream skips the metrics wrapper.
	r.HandleFunc("/ws", a.stream).Methods(http.MethodGet)
	r.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Wrap adds access logging, CORS and panic recovery around h. access
// defaults to stdout.
func Wrap(h http.Handler, access io.Writer, log *slog.Logger, origins []string) http.Handler {
	if access == nil {
		access = os.Stdout
	}
	if log == nil {
		log = slog.Default()
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{log: log}),
		handlers.PrintRecoveryStack(false),
	)
	return handlers.LoggingHandler(access, recovery(cors(h)))
}

type recoveryLogger struct{ log *slog.Logger }

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error("http_handler_panic", slog.Any("panic", v))
}

func healthLive(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (a *api) healthReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !a.health.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("NOT_READY"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
