// v0
// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/sync/errgroup"

	"nrgchamp/dashboard/internal/breaker"
	"nrgchamp/dashboard/internal/config"
	"nrgchamp/dashboard/internal/controller"
	"nrgchamp/dashboard/internal/fetch"
	"nrgchamp/dashboard/internal/gate"
	"nrgchamp/dashboard/internal/history"
	"nrgchamp/dashboard/internal/httpapi"
	"nrgchamp/dashboard/internal/metrics"
	"nrgchamp/dashboard/internal/mirror"
	"nrgchamp/dashboard/internal/model"
	"nrgchamp/dashboard/internal/notify"
)

// Application wires configuration, logging, the dashboard controller, its
// optional mirrors and the HTTP surface.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	logFile  *os.File
	server   *http.Server
	health   *httpapi.HealthState
	metrics  *metrics.Metrics
	ctl      *controller.Controller
	history  *mirror.HistoryPublisher
	mqtt     mqtt.Client
	breakers breaker.Settings
}

// New prepares a fully wired dashboard. Broker mirrors that cannot be
// reached at startup are logged and skipped; the dashboard runs without
// them.
func New(cfg config.Config) (*Application, error) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		return nil, errors.New("listen address cannot be empty")
	}
	logPath := filepath.Clean(cfg.LogFilePath)
	if logPath == "" {
		return nil, errors.New("log file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	lf, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger := newLogger(lf, cfg.LogLevel)

	settings, err := breaker.SettingsFromEnv()
	if err != nil {
		_ = lf.Close()
		return nil, fmt.Errorf("circuit breaker settings: %w", err)
	}

	m := metrics.New()
	a := &Application{cfg: cfg, logger: logger, logFile: lf, metrics: m, breakers: settings}

	loc := time.Local
	model.SetNaiveLocation(loc)
	backend := fetch.New(cfg.BackendURL, a.httpDoer(), logger, m)

	hist := history.New(cfg.HistoryCapacity, m)
	notes := notify.New(logger, time.Now, notificationCounter{m: m})
	a.attachMirrors(hist, notes)

	ctl, err := controller.New(backend, controller.Deps{
		Gate:     gate.New(m),
		Notifier: notes,
		History:  hist,
	}, controller.Options{
		Logger:       logger,
		Recorder:     m,
		Location:     loc,
		RefreshEvery: cfg.RefreshInterval,
		HealthEvery:  cfg.HealthInterval,
		UptimeEvery:  cfg.UptimeInterval,
		SettleDelay:  cfg.SettleDelay,
		DefaultCity:  cfg.DefaultCity,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("controller init: %w", err)
	}
	a.ctl = ctl

	a.health = httpapi.NewHealthState()
	router := httpapi.NewRouter(httpapi.Deps{
		Controller: ctl,
		Health:     a.health,
		Metrics:    m,
		Logger:     logger,
	})
	a.server = &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           httpapi.Wrap(router, os.Stdout, logger, nil),
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPWriteTimeout,
	}

	logger.Info("dashboard_configured",
		slog.String("backend", cfg.BackendURL),
		slog.Duration("refresh", cfg.RefreshInterval),
		slog.Duration("health", cfg.HealthInterval),
		slog.Int("history_capacity", hist.Capacity()),
		slog.Bool("circuit_breaker", settings.Enabled),
		slog.Bool("kafka_mirror", a.history != nil),
		slog.Bool("mqtt_mirror", a.mqtt != nil),
	)
	return a, nil
}

// httpDoer returns the transport for backend calls, guarded by a circuit
// breaker when CB_ENABLED is set.
func (a *Application) httpDoer() fetch.Doer {
	client := &http.Client{Timeout: a.cfg.RequestTimeout}
	if !a.breakers.Enabled {
		return client
	}
	return breaker.NewHTTPClient("backend", a.breakers.HTTP, a.cfg.BackendURL+"/api/health", client,
		breaker.WithLogger(a.logger),
		breaker.OnStateChange(a.metrics.BreakerChanged),
	)
}

func (a *Application) attachMirrors(hist *history.Log, notes *notify.Notifier) {
	if a.cfg.KafkaEnabled() {
		pub, err := mirror.NewHistoryPublisher(
			mirror.KafkaConfig{Brokers: a.cfg.KafkaBrokers, Topic: a.cfg.HistoryTopic},
			a.breakers, a.logger,
			breaker.WithLogger(a.logger),
			breaker.OnStateChange(a.metrics.BreakerChanged),
		)
		if err != nil {
			a.logger.Warn("history_mirror_disabled", slog.Any("err", err))
		} else {
			a.history = pub
			hist.AddMirror(pub)
		}
	}
	if a.cfg.MQTTEnabled() {
		client, err := mirror.ConnectMQTT(mirror.MQTTConfig{
			Broker:   a.cfg.MQTTBroker,
			Topic:    a.cfg.NotificationTopic,
			ClientID: a.cfg.MQTTClientID,
		})
		if err != nil {
			a.logger.Warn("notification_mirror_disabled", slog.Any("err", err))
			return
		}
		a.mqtt = client
		notes.AddSink(mirror.NewNotificationPublisher(client, a.cfg.NotificationTopic, a.logger))
	}
}

// Logger exposes the configured logger to main.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Run blocks until ctx is cancelled or a component fails. It serves HTTP,
// runs the controller and its timers, and shuts everything down within the
// configured timeout.
func (a *Application) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if a.history != nil {
		a.history.Start(gctx)
	}

	g.Go(func() error {
		select {
		case <-a.ctl.Booted():
			a.health.SetReady(true)
			a.logger.Info("dashboard_ready")
		case <-gctx.Done():
		}
		return nil
	})

	g.Go(func() error {
		a.logger.Info("http_server_listen", slog.String("address", a.cfg.ListenAddress))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := a.ctl.Run(gctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("controller: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutdown_signal")
		a.health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		var errs []error
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown: %w", err))
		}
		if a.history != nil {
			if err := a.history.Stop(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("history mirror: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	err := g.Wait()
	if err != nil {
		a.logger.Error("dashboard_stopped", slog.Any("err", err))
		return err
	}
	a.logger.Info("shutdown_complete")
	return nil
}

// Close releases the broker connection and the log file.
func (a *Application) Close() error {
	if a.mqtt != nil {
		a.mqtt.Disconnect(250)
		a.mqtt = nil
	}
	a.history = nil
	if a.logFile == nil {
		return nil
	}
	if err := a.logFile.Close(); err != nil {
		return err
	}
	a.logFile = nil
	return nil
}

// notificationCounter counts raised notifications by severity.
type notificationCounter struct{ m *metrics.Metrics }

func (n notificationCounter) Publish(item notify.Item) {
	n.m.NotificationRaised(string(item.Severity))
}
