// v0
// internal/breaker/env.go
package breaker

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings is the breaker configuration read from the environment.
//
// Keys:
//   - CB_ENABLED (default: false)
//   - CB_HTTP_FAILURE_THRESHOLD (default: 5)
//   - CB_HTTP_SUCCESS_THRESHOLD (default: 1)
//   - CB_HTTP_OPEN_SECONDS (default: 30)
//   - CB_KAFKA_FAILURE_THRESHOLD (default: 5)
//   - CB_KAFKA_SUCCESS_THRESHOLD (default: 2)
//   - CB_KAFKA_OPEN_SECONDS (default: 30)
//   - CB_KAFKA_TIMEOUT_MS (default: 3000)
//   - CB_KAFKA_BACKOFF_MS (default: 200)
type Settings struct {
	Enabled     bool
	HTTP        Config
	Kafka       Config
	KafkaPolicy KafkaPolicy
}

// SettingsFromEnv parses the CB_* variables.
func SettingsFromEnv() (Settings, error) {
	s := Settings{Enabled: parseEnvBool("CB_ENABLED")}
	var err error
	if s.HTTP, err = configFromEnv("CB_HTTP", 5, 1); err != nil {
		return Settings{}, err
	}
	if s.Kafka, err = configFromEnv("CB_KAFKA", 5, 2); err != nil {
		return Settings{}, err
	}
	timeoutMS, err := parseEnvInt("CB_KAFKA_TIMEOUT_MS", 3000)
	if err != nil {
		return Settings{}, err
	}
	backoffMS, err := parseEnvInt("CB_KAFKA_BACKOFF_MS", 200)
	if err != nil {
		return Settings{}, err
	}
	if timeoutMS < 0 {
		return Settings{}, fmt.Errorf("CB_KAFKA_TIMEOUT_MS must be >= 0")
	}
	if backoffMS < 0 {
		return Settings{}, fmt.Errorf("CB_KAFKA_BACKOFF_MS must be >= 0")
	}
	s.KafkaPolicy = KafkaPolicy{
		Attempts: s.Kafka.MaxFailures,
		Timeout:  time.Duration(timeoutMS) * time.Millisecond,
		Backoff:  time.Duration(backoffMS) * time.Millisecond,
	}
	return s, nil
}

func configFromEnv(prefix string, failures, successes int) (Config, error) {
	failureThreshold, err := parseEnvInt(prefix+"_FAILURE_THRESHOLD", failures)
	if err != nil {
		return Config{}, err
	}
	successThreshold, err := parseEnvInt(prefix+"_SUCCESS_THRESHOLD", successes)
	if err != nil {
		return Config{}, err
	}
	openSeconds, err := parseEnvFloat(prefix+"_OPEN_SECONDS", 30)
	if err != nil {
		return Config{}, err
	}
	if failureThreshold < 1 {
		return Config{}, fmt.Errorf("%s_FAILURE_THRESHOLD must be >= 1", prefix)
	}
	if successThreshold < 1 {
		return Config{}, fmt.Errorf("%s_SUCCESS_THRESHOLD must be >= 1", prefix)
	}
	if openSeconds <= 0 {
		return Config{}, fmt.Errorf("%s_OPEN_SECONDS must be > 0", prefix)
	}
	return Config{
		MaxFailures:      failureThreshold,
		ResetTimeout:     time.Duration(openSeconds * float64(time.Second)),
		SuccessesToClose: successThreshold,
	}, nil
}

func parseEnvInt(key string, def int) (int, error) {
	trimmed := strings.TrimSpace(os.Getenv(key))
	if trimmed == "" {
		return def, nil
	}
	v, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseEnvFloat(key string, def float64) (float64, error) {
	trimmed := strings.TrimSpace(os.Getenv(key))
	if trimmed == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseEnvBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
