// v0
// internal/model/model.go
// Package model holds the data shapes exchanged between the dashboard
// components and the energy backend.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Condition is the weather label attached to a city reading.
type Condition string

const (
	ConditionHot    Condition = "Hot"
	ConditionCold   Condition = "Cold"
	ConditionRainy  Condition = "Rainy"
	ConditionHumid  Condition = "Humid"
	ConditionCloudy Condition = "Cloudy"
	ConditionNormal Condition = "Normal"
)

// CityMetric is one live reading returned by /api/cities/live. A slice of
// them is replaced wholesale on every refresh.
type CityMetric struct {
	City            string    `json:"city"`
	PowerMW         float64   `json:"power_mw"`
	Temperature     float64   `json:"temperature"`
	Humidity        float64   `json:"humidity"`
	Condition       Condition `json:"condition"`
	PeakConsumption *float64  `json:"peak_consumption,omitempty"`
}

// PredictionRequest is the body POSTed to /api/predict.
type PredictionRequest struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Hour        int     `json:"hour"`
	IsWeekend   bool    `json:"is_weekend"`
}

// DefaultConfidence is assumed when the backend omits a confidence score.
const DefaultConfidence = 85.0

// PredictionResult is the successful answer of /api/predict.
type PredictionResult struct {
	City        string      `json:"city"`
	Temperature float64     `json:"temperature"`
	Humidity    float64     `json:"humidity"`
	Hour        int         `json:"hour"`
	IsWeekend   bool        `json:"is_weekend"`
	Prediction  float64     `json:"prediction"`
	Confidence  *float64    `json:"confidence,omitempty"`
	Model       string      `json:"model,omitempty"`
	Timestamp   *EpochMilli `json:"timestamp,omitempty"`
}

// ConfidenceOrDefault returns the reported confidence, or DefaultConfidence
// when none (or zero) was reported.
func (r PredictionResult) ConfidenceOrDefault() float64 {
	if r.Confidence == nil || *r.Confidence == 0 {
		return DefaultConfidence
	}
	return *r.Confidence
}

// EpochMilli is a wall-clock instant serialized as epoch milliseconds. It
// also decodes RFC 3339 strings because the reference backend emits ISO
// timestamps. ISO strings without a zone are read in the naive location.
type EpochMilli int64

var naiveLocation atomic.Pointer[time.Location]

// SetNaiveLocation sets the zone used for ISO timestamps that carry no
// offset. nil restores time.Local.
func SetNaiveLocation(loc *time.Location) {
	naiveLocation.Store(loc)
}

// NaiveLocation reports the zone applied to zone-less ISO timestamps.
func NaiveLocation() *time.Location {
	if loc := naiveLocation.Load(); loc != nil {
		return loc
	}
	return time.Local
}

// EpochMilliFrom converts t to epoch milliseconds.
func EpochMilliFrom(t time.Time) EpochMilli {
	return EpochMilli(t.UnixMilli())
}

// Time returns the instant as a time.Time in UTC.
func (e EpochMilli) Time() time.Time {
	return time.UnixMilli(int64(e)).UTC()
}

func (e EpochMilli) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(e), 10)), nil
}

func (e *EpochMilli) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			*e = EpochMilliFrom(t)
			return nil
		}
		loc := NaiveLocation()
		for _, layout := range []string{"2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				*e = EpochMilliFrom(t)
				return nil
			}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			*e = EpochMilli(n)
			return nil
		}
		return fmt.Errorf("unsupported timestamp %q", s)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", raw, err)
	}
	*e = EpochMilli(int64(f))
	return nil
}

// HealthState is the display state of one backend subsystem.
type HealthState string

const (
	HealthUnknown         HealthState = "Checking"
	HealthOperational     HealthState = "Operational"
	HealthOffline         HealthState = "Offline"
	HealthConnectionError HealthState = "Connection Error"
)

// Subsystems lists the status indicators shown on the dashboard, in display
// order.
var Subsystems = []string{"weather", "power", "model", "data"}

// HealthReport is the outcome of a health check. It never carries an error;
// failures are folded into the per-subsystem state.
type HealthReport struct {
	Status    string                 `json:"status"`
	States    map[string]HealthState `json:"states"`
	CheckedAt time.Time              `json:"checkedAt"`
	Detail    string                 `json:"detail,omitempty"`
}

// UniformHealth builds a report where every subsystem shares one state.
func UniformHealth(status string, state HealthState, at time.Time, detail string) HealthReport {
	states := make(map[string]HealthState, len(Subsystems))
	for _, s := range Subsystems {
		states[s] = state
	}
	return HealthReport{Status: status, States: states, CheckedAt: at, Detail: detail}
}
