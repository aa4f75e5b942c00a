// v0
// internal/config/config.go
package config

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures all runtime settings required by the dashboard. Values
// can be provided by environment variables (optionally seeded from a .env
// file), a properties file, or fall back to defaults that boot against a
// backend on localhost.
type Config struct {
	// ListenAddress defines the TCP address used by the HTTP surface.
	ListenAddress string
	// LogFilePath is the absolute or relative path to the log file.
	LogFilePath string
	// LogLevel is one of debug, info, warn or error.
	LogLevel string
	// BackendURL is the base URL of the prediction backend.
	BackendURL string
	// RequestTimeout bounds every backend call.
	RequestTimeout time.Duration
	// RefreshInterval is the period of the live metrics refresh timer.
	RefreshInterval time.Duration
	// HealthInterval is the period of the health check timer.
	HealthInterval time.Duration
	// UptimeInterval is the period of the uptime ticker.
	UptimeInterval time.Duration
	// SettleDelay is how long the dashboard stays in the booting phase.
	SettleDelay time.Duration
	// HistoryCapacity caps the operation log.
	HistoryCapacity  int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	// ShutdownTimeout limits graceful shutdown attempts.
	ShutdownTimeout time.Duration
	// DefaultCity preselects the scenario form.
	DefaultCity string
	// KafkaBrokers and HistoryTopic enable the history mirror when both
	// are set.
	KafkaBrokers []string
	HistoryTopic string
	// MQTTBroker and NotificationTopic enable the notification mirror when
	// both are set.
	MQTTBroker        string
	NotificationTopic string
	MQTTClientID      string
	// PropertiesPath records the path used to load property values.
	PropertiesPath string
	// EnvFilePath records the .env file consulted before the environment.
	EnvFilePath string
}

// MaxHistoryCapacity is the largest operation log the dashboard keeps.
const MaxHistoryCapacity = 50

const (
	defaultListenAddress   = ":8090"
	defaultLogFile         = "logs/dashboard.log"
	defaultLogLevel        = "info"
	defaultBackendURL      = "http://localhost:5000"
	defaultRequestTimeout  = 10 * time.Second
	defaultRefresh         = 30 * time.Second
	defaultHealth          = 60 * time.Second
	defaultUptime          = time.Second
	defaultSettle          = 1500 * time.Millisecond
	defaultHistoryCapacity = MaxHistoryCapacity
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdown        = 5 * time.Second
	defaultCity            = "Delhi"
	defaultHistoryTopic    = "dashboard.history"
	defaultNotifyTopic     = "dashboard/notifications"
	defaultMQTTClientID    = "nrgchamp-dashboard"
	defaultPropsPath       = "dashboard.properties"
	defaultEnvFile         = ".env"
)

// Load resolves configuration by layering defaults, an optional
// properties file, and finally environment variables. A .env file (path
// overridable with DASHBOARD_ENV_FILE) is loaded first without overriding
// variables already set. The properties file location can be overridden
// with DASHBOARD_PROPERTIES_PATH.
func Load() (Config, error) {
	cfg := Config{
		ListenAddress:     defaultListenAddress,
		LogFilePath:       filepath.Clean(defaultLogFile),
		LogLevel:          defaultLogLevel,
		BackendURL:        defaultBackendURL,
		RequestTimeout:    defaultRequestTimeout,
		RefreshInterval:   defaultRefresh,
		HealthInterval:    defaultHealth,
		UptimeInterval:    defaultUptime,
		SettleDelay:       defaultSettle,
		HistoryCapacity:   defaultHistoryCapacity,
		HTTPReadTimeout:   defaultReadTimeout,
		HTTPWriteTimeout:  defaultWriteTimeout,
		ShutdownTimeout:   defaultShutdown,
		DefaultCity:       defaultCity,
		HistoryTopic:      defaultHistoryTopic,
		NotificationTopic: defaultNotifyTopic,
		MQTTClientID:      defaultMQTTClientID,
	}

	envPath, ok := lookupEnvTrimmed("DASHBOARD_ENV_FILE")
	if !ok || envPath == "" {
		envPath = defaultEnvFile
	}
	cfg.EnvFilePath = envPath
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envPath, err)
	}

	propsPath := strings.TrimSpace(os.Getenv("DASHBOARD_PROPERTIES_PATH"))
	if propsPath == "" {
		propsPath = defaultPropsPath
	}
	cfg.PropertiesPath = propsPath

	if err := applyProperties(&cfg, propsPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// KafkaEnabled reports whether the history mirror should start.
func (c Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 && c.HistoryTopic != "" }

// MQTTEnabled reports whether the notification mirror should start.
func (c Config) MQTTEnabled() bool { return c.MQTTBroker != "" && c.NotificationTopic != "" }

func applyProperties(cfg *Config, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, ";") {
			continue
		}
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return fmt.Errorf("invalid properties entry on line %d", line)
		}
		key = strings.TrimSpace(key)
		if err := set(cfg, key, strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("property %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read properties: %w", err)
	}
	return nil
}

// envKeys maps environment variables onto property keys.
var envKeys = []struct{ env, key string }{
	{"DASHBOARD_LISTEN_ADDRESS", "listen_address"},
	{"DASHBOARD_LOG_PATH", "log_path"},
	{"DASHBOARD_LOG_LEVEL", "log_level"},
	{"DASHBOARD_BACKEND_URL", "backend_url"},
	{"DASHBOARD_REQUEST_TIMEOUT_MS", "request_timeout_ms"},
	{"DASHBOARD_REFRESH_INTERVAL_MS", "refresh_interval_ms"},
	{"DASHBOARD_HEALTH_INTERVAL_MS", "health_interval_ms"},
	{"DASHBOARD_UPTIME_INTERVAL_MS", "uptime_interval_ms"},
	{"DASHBOARD_SETTLE_DELAY_MS", "settle_delay_ms"},
	{"DASHBOARD_HISTORY_CAPACITY", "history_capacity"},
	{"DASHBOARD_HTTP_READ_TIMEOUT_MS", "http_read_timeout_ms"},
	{"DASHBOARD_HTTP_WRITE_TIMEOUT_MS", "http_write_timeout_ms"},
	{"DASHBOARD_SHUTDOWN_TIMEOUT_MS", "shutdown_timeout_ms"},
	{"DASHBOARD_DEFAULT_CITY", "default_city"},
	{"KAFKA_BROKERS", "kafka_brokers"},
	{"DASHBOARD_KAFKA_BROKERS", "kafka_brokers"},
	{"DASHBOARD_HISTORY_TOPIC", "history_topic"},
	{"MQTT_BROKER", "mqtt_broker"},
	{"DASHBOARD_MQTT_BROKER", "mqtt_broker"},
	{"DASHBOARD_NOTIFICATION_TOPIC", "notification_topic"},
	{"DASHBOARD_MQTT_CLIENT_ID", "mqtt_client_id"},
}

func applyEnv(cfg *Config) error {
	for _, k := range envKeys {
		v, ok := lookupEnvTrimmed(k.env)
		if !ok {
			continue
		}
		if err := set(cfg, k.key, v); err != nil {
			return fmt.Errorf("%s: %w", k.env, err)
		}
	}
	return nil
}

func set(cfg *Config, key, value string) error {
	switch key {
	case "listen_address":
		if value == "" {
			return errors.New("listen_address cannot be empty")
		}
		cfg.ListenAddress = value
	case "log_path":
		if value == "" {
			return errors.New("log_path cannot be empty")
		}
		cfg.LogFilePath = filepath.Clean(value)
	case "log_level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "warning", "error":
			cfg.LogLevel = strings.ToLower(value)
		default:
			return fmt.Errorf("unknown log level %q", value)
		}
	case "backend_url":
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid backend url %q", value)
		}
		cfg.BackendURL = strings.TrimRight(value, "/")
	case "request_timeout_ms":
		return setMillis(&cfg.RequestTimeout, value)
	case "refresh_interval_ms":
		return setMillis(&cfg.RefreshInterval, value)
	case "health_interval_ms":
		return setMillis(&cfg.HealthInterval, value)
	case "uptime_interval_ms":
		return setMillis(&cfg.UptimeInterval, value)
	case "settle_delay_ms":
		return setMillis(&cfg.SettleDelay, value)
	case "http_read_timeout_ms":
		return setMillis(&cfg.HTTPReadTimeout, value)
	case "http_write_timeout_ms":
		return setMillis(&cfg.HTTPWriteTimeout, value)
	case "shutdown_timeout_ms":
		return setMillis(&cfg.ShutdownTimeout, value)
	case "history_capacity":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid history_capacity: %w", err)
		}
		if n <= 0 || n > MaxHistoryCapacity {
			return fmt.Errorf("history_capacity must be between 1 and %d", MaxHistoryCapacity)
		}
		cfg.HistoryCapacity = n
	case "default_city":
		if value == "" {
			return errors.New("default_city cannot be empty")
		}
		cfg.DefaultCity = value
	case "kafka_brokers":
		cfg.KafkaBrokers = splitAndTrim(value)
	case "history_topic":
		cfg.HistoryTopic = value
	case "mqtt_broker":
		cfg.MQTTBroker = value
	case "notification_topic":
		cfg.NotificationTopic = value
	case "mqtt_client_id":
		if value == "" {
			return errors.New("mqtt_client_id cannot be empty")
		}
		cfg.MQTTClientID = value
	default:
		// Unknown keys are ignored.
	}
	return nil
}

func setMillis(dst *time.Duration, v string) error {
	d, err := parsePositiveMillis(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func lookupEnvTrimmed(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func splitAndTrim(raw string) []string {
	fields := strings.Split(raw, ",")
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		trimmed := strings.TrimSpace(field)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parsePositiveMillis(v string) (time.Duration, error) {
	if strings.TrimSpace(v) == "" {
		return 0, errors.New("value cannot be empty")
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %w", err)
	}
	if ms <= 0 {
		return 0, errors.New("value must be greater than zero")
	}
	return time.Duration(ms) * time.Millisecond, nil
}
