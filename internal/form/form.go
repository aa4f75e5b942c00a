// v0
// internal/form/form.go
// Package form models the scenario form: each numeric field is shown both as
// a text input and a slider, and a write to either side propagates to the
// other and re-validates.
package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"nrgchamp/dashboard/internal/model"
	"nrgchamp/dashboard/internal/validate"
)

// Field names a synchronized input.
type Field string

const (
	FieldTemperature Field = "temperature"
	FieldHumidity    Field = "humidity"
	FieldHour        Field = "hour"
)

// Source tells which control of the pair was written.
type Source string

const (
	SourceInput  Source = "input"
	SourceSlider Source = "slider"
)

// Default scenario values applied on boot.
const (
	DefaultCity        = "Delhi"
	DefaultTemperature = 32.0
	DefaultHumidity    = 70.0
)

type sliderRange struct{ min, max float64 }

var sliderRanges = map[Field]sliderRange{
	FieldTemperature: {-10, 50},
	FieldHumidity:    {0, 100},
	FieldHour:        {0, 23},
}

// Pair is the visible state of one field.
type Pair struct {
	Input   string           `json:"input"`
	Slider  string           `json:"slider"`
	Verdict validate.Verdict `json:"verdict"`
}

// State is a copy of the whole form.
type State struct {
	City        string `json:"city"`
	Weekend     bool   `json:"weekend"`
	Temperature Pair   `json:"temperature"`
	Humidity    Pair   `json:"humidity"`
	Hour        Pair   `json:"hour"`
}

// Form is not safe for concurrent use; the controller serializes access.
type Form struct {
	city    string
	weekend bool
	pairs   map[Field]*Pair
}

// New returns a form seeded with the boot defaults for the instant now.
func New(now time.Time) *Form {
	f := &Form{pairs: map[Field]*Pair{
		FieldTemperature: {},
		FieldHumidity:    {},
		FieldHour:        {},
	}}
	f.Reset(now)
	return f
}

// Reset applies the defaults: the current wall-clock hour, the weekend flag
// of today, and the standard temperature and humidity.
func (f *Form) Reset(now time.Time) {
	f.city = DefaultCity
	wd := now.Weekday()
	f.weekend = wd == time.Saturday || wd == time.Sunday
	_, _ = f.Set(FieldTemperature, SourceInput, formatNumber(DefaultTemperature))
	_, _ = f.Set(FieldHumidity, SourceInput, formatNumber(DefaultHumidity))
	_, _ = f.Set(FieldHour, SourceInput, strconv.Itoa(now.Hour()))
}

// Set writes raw into one side of the field pair, mirrors it into the other
// side and returns the fresh verdict.
func (f *Form) Set(field Field, source Source, raw string) (validate.Verdict, error) {
	p, ok := f.pairs[field]
	if !ok {
		return validate.Verdict{}, fmt.Errorf("unknown form field %q", field)
	}
	switch source {
	case SourceInput:
		p.Input = raw
		p.Slider = formatNumber(clamp(field, coerce(field, raw)))
	case SourceSlider:
		v := clamp(field, coerce(field, raw))
		p.Slider = formatNumber(v)
		p.Input = p.Slider
	default:
		return validate.Verdict{}, fmt.Errorf("unknown form source %q", source)
	}
	p.Verdict = verdict(field, coerce(field, p.Input))
	return p.Verdict, nil
}

// SetCity selects the prediction city.
func (f *Form) SetCity(city string) {
	if c := strings.TrimSpace(city); c != "" {
		f.city = c
	}
}

// SetWeekend toggles the weekend checkbox.
func (f *Form) SetWeekend(v bool) { f.weekend = v }

// State returns a copy of the form.
func (f *Form) State() State {
	return State{
		City:        f.city,
		Weekend:     f.weekend,
		Temperature: *f.pairs[FieldTemperature],
		Humidity:    *f.pairs[FieldHumidity],
		Hour:        *f.pairs[FieldHour],
	}
}

// Request builds the prediction request from the text inputs, the way the
// form is read at submit time.
func (f *Form) Request() model.PredictionRequest {
	return model.PredictionRequest{
		City:        f.city,
		Temperature: validate.Coerce(f.pairs[FieldTemperature].Input),
		Humidity:    validate.Coerce(f.pairs[FieldHumidity].Input),
		Hour:        validate.CoerceInt(f.pairs[FieldHour].Input),
		IsWeekend:   f.weekend,
	}
}

func coerce(field Field, raw string) float64 {
	if field == FieldHour {
		return float64(validate.CoerceInt(raw))
	}
	return validate.Coerce(raw)
}

func verdict(field Field, v float64) validate.Verdict {
	switch field {
	case FieldTemperature:
		return validate.Temperature(v)
	case FieldHumidity:
		return validate.Humidity(v)
	default:
		return validate.Hour(v)
	}
}

func clamp(field Field, v float64) float64 {
	r := sliderRanges[field]
	return math.Max(r.min, math.Min(r.max, v))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
