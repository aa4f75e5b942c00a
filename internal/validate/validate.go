// v0
// internal/validate/validate.go
// Package validate holds the pure range checks applied to scenario inputs
// before a prediction is submitted.
package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"nrgchamp/dashboard/internal/model"
)

// Tier is the visual severity of a field.
type Tier string

const (
	TierValid   Tier = "valid"
	TierWarn    Tier = "warn"
	TierInvalid Tier = "invalid"
)

// Verdict is the outcome of checking one field. Warn-tier values are still
// submittable.
type Verdict struct {
	Submittable bool `json:"submittable"`
	Tier        Tier `json:"tier"`
}

type bounds struct {
	hardMin, hardMax float64
	softMin, softMax float64
	soft             bool
}

var (
	temperatureBounds = bounds{hardMin: -10, hardMax: 50, softMin: 0, softMax: 40, soft: true}
	humidityBounds    = bounds{hardMin: 0, hardMax: 100, softMin: 20, softMax: 90, soft: true}
	hourBounds        = bounds{hardMin: 0, hardMax: 23}
)

func (b bounds) check(v float64) Verdict {
	if math.IsNaN(v) {
		v = 0
	}
	if v < b.hardMin || v > b.hardMax {
		return Verdict{Submittable: false, Tier: TierInvalid}
	}
	if b.soft && (v < b.softMin || v > b.softMax) {
		return Verdict{Submittable: true, Tier: TierWarn}
	}
	return Verdict{Submittable: true, Tier: TierValid}
}

// Temperature rejects values outside [-10, 50] °C and warns outside [0, 40].
func Temperature(c float64) Verdict { return temperatureBounds.check(c) }

// Humidity rejects values outside [0, 100] % and warns outside [20, 90].
func Humidity(pct float64) Verdict { return humidityBounds.check(pct) }

// Hour rejects values outside [0, 23].
func Hour(h float64) Verdict { return hourBounds.check(h) }

// Coerce parses raw form input. Anything that is not a finite number
// becomes 0.
func Coerce(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// CoerceInt parses raw form input as an hour. Fractions are truncated and
// anything non-numeric becomes 0.
func CoerceInt(raw string) int {
	return int(math.Trunc(Coerce(raw)))
}

// AggregateMessage is the single notification shown when a submission is
// rejected.
const AggregateMessage = "Please fix the highlighted fields before predicting"

// Request checks every field of req and returns a *model.ValidationError
// naming each rejected one, or nil when all three pass.
func Request(req model.PredictionRequest) error {
	var problems []model.FieldProblem
	if !Temperature(req.Temperature).Submittable {
		problems = append(problems, model.FieldProblem{
			Field:   "temperature",
			Value:   req.Temperature,
			Message: fmt.Sprintf("temperature %g°C outside [-10, 50]", req.Temperature),
		})
	}
	if !Humidity(req.Humidity).Submittable {
		problems = append(problems, model.FieldProblem{
			Field:   "humidity",
			Value:   req.Humidity,
			Message: fmt.Sprintf("humidity %g%% outside [0, 100]", req.Humidity),
		})
	}
	if !Hour(float64(req.Hour)).Submittable {
		problems = append(problems, model.FieldProblem{
			Field:   "hour",
			Value:   float64(req.Hour),
			Message: fmt.Sprintf("hour %d outside [0, 23]", req.Hour),
		})
	}
	if len(problems) == 0 {
		return nil
	}
	return &model.ValidationError{Problems: problems}
}
