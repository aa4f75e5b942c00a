// v0
// internal/view/regions.go
// Package view renders dashboard state into the named UI regions served to
// viewers: status indicators, city cards, result panel and the board that
// bundles them.
package view

import (
	"fmt"
	"math"
	"time"

	"nrgchamp/dashboard/internal/model"
)

// DefaultPeakMW is the capacity assumed when a city reports no peak.
const DefaultPeakMW = 5000.0

const (
	DefaultModelVersion = "v1.0.0"
	DefaultAlgorithm    = "Multi-Factor Regression"
)

var conditionColors = map[model.Condition]string{
	model.ConditionHot:    "#ef4444",
	model.ConditionCold:   "#3b82f6",
	model.ConditionRainy:  "#06b6d4",
	model.ConditionHumid:  "#8b5cf6",
	model.ConditionCloudy: "#94a3b8",
}

const defaultConditionColor = "#10b981"

// ConditionColor maps a weather label to its accent colour.
func ConditionColor(c model.Condition) string {
	if col, ok := conditionColors[c]; ok {
		return col
	}
	return defaultConditionColor
}

// Utilization is the share of peak capacity in use, capped at 100.
func Utilization(c model.CityMetric) int {
	peak := DefaultPeakMW
	if c.PeakConsumption != nil && *c.PeakConsumption != 0 {
		peak = *c.PeakConsumption
	}
	return int(math.Min(100, math.Round(c.PowerMW/peak*100)))
}

// Card is one entry of the city grid.
type Card struct {
	City           string          `json:"city"`
	Tier           model.Tier      `json:"tier"`
	Condition      model.Condition `json:"condition"`
	ConditionColor string          `json:"conditionColor"`
	Power          string          `json:"power"`
	Temperature    string          `json:"temperature"`
	Humidity       string          `json:"humidity"`
	Utilization    int             `json:"utilization"`
}

// Cards renders the grid in input order.
func Cards(cities []model.CityMetric) []Card {
	out := make([]Card, 0, len(cities))
	for _, c := range cities {
		out = append(out, Card{
			City:           c.City,
			Tier:           model.TierFor(c.PowerMW),
			Condition:      c.Condition,
			ConditionColor: ConditionColor(c.Condition),
			Power:          FormatNumber(c.PowerMW) + " MW",
			Temperature:    plain(c.Temperature) + "°C",
			Humidity:       plain(c.Humidity) + "%",
			Utilization:    Utilization(c),
		})
	}
	return out
}

// ConfidenceTier colours the confidence badge.
type ConfidenceTier string

const (
	ConfidenceGood ConfidenceTier = "good"
	ConfidenceFair ConfidenceTier = "fair"
	ConfidencePoor ConfidenceTier = "poor"
)

func ConfidenceTierFor(pct float64) ConfidenceTier {
	switch {
	case pct >= 85:
		return ConfidenceGood
	case pct >= 70:
		return ConfidenceFair
	default:
		return ConfidencePoor
	}
}

// ResultPanel is the prediction result region. The zero value is hidden.
type ResultPanel struct {
	Visible         bool           `json:"visible"`
	City            string         `json:"city,omitempty"`
	Prediction      float64        `json:"prediction,omitempty"`
	PredictionLabel string         `json:"predictionLabel,omitempty"`
	Summary         string         `json:"summary,omitempty"`
	Confidence      float64        `json:"confidence,omitempty"`
	ConfidenceLabel string         `json:"confidenceLabel,omitempty"`
	ConfidenceTier  ConfidenceTier `json:"confidenceTier,omitempty"`
	Temperature     string         `json:"temperature,omitempty"`
	Humidity        string         `json:"humidity,omitempty"`
	TimeOfDay       string         `json:"timeOfDay,omitempty"`
	Weekend         string         `json:"weekend,omitempty"`
	ModelVersion    string         `json:"modelVersion,omitempty"`
	Algorithm       string         `json:"algorithm,omitempty"`
	PredictedAt     string         `json:"predictedAt,omitempty"`
}

// Result renders res. now stamps results that carry no timestamp.
func Result(res model.PredictionResult, now time.Time, loc *time.Location) ResultPanel {
	if loc == nil {
		loc = time.Local
	}
	at := now
	if res.Timestamp != nil {
		at = res.Timestamp.Time()
	}
	at = at.In(loc)
	conf := res.ConfidenceOrDefault()
	weekend := "No"
	if res.IsWeekend {
		weekend = "Yes"
	}
	version, algorithm := DefaultModelVersion, DefaultAlgorithm
	if res.Model != "" {
		version, algorithm = res.Model, res.Model
	}
	return ResultPanel{
		Visible:         true,
		City:            res.City,
		Prediction:      res.Prediction,
		PredictionLabel: FormatNumber(res.Prediction) + " MW",
		Summary:         "Predicted Energy Consumption for " + res.City,
		Confidence:      conf,
		ConfidenceLabel: plain(conf) + "%",
		ConfidenceTier:  ConfidenceTierFor(conf),
		Temperature:     plain(res.Temperature) + "°C",
		Humidity:        plain(res.Humidity) + "%",
		TimeOfDay:       fmt.Sprintf("%d:00", res.Hour),
		Weekend:         weekend,
		ModelVersion:    version,
		Algorithm:       algorithm,
		PredictedAt:     Date(at) + " " + Clock(at),
	}
}

// Indicator is one subsystem status light.
type Indicator struct {
	Subsystem string            `json:"subsystem"`
	State     model.HealthState `json:"state"`
	Live      bool              `json:"live"`
}

// Indicators renders the four status lights in display order. Subsystems
// missing from rep show as still checking.
func Indicators(rep model.HealthReport) []Indicator {
	out := make([]Indicator, 0, len(model.Subsystems))
	for _, s := range model.Subsystems {
		st, ok := rep.States[s]
		if !ok {
			st = model.HealthUnknown
		}
		out = append(out, Indicator{Subsystem: s, State: st, Live: st == model.HealthOperational})
	}
	return out
}
