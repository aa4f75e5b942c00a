// v0
// internal/controller/state.go
package controller

import (
	"time"

	"nrgchamp/dashboard/internal/form"
	"nrgchamp/dashboard/internal/model"
	"nrgchamp/dashboard/internal/view"
)

// ViewState holds the chart selectors and load status.
type ViewState struct {
	ChartType  model.ChartType  `json:"chartType"`
	DataType   model.DataType   `json:"dataType"`
	IsLoading  bool             `json:"isLoading"`
	LastUpdate model.EpochMilli `json:"lastUpdate"`
}

// DashboardState is the whole mutable state of one dashboard. The
// controller guards it with its mutex; nothing else holds a reference.
type DashboardState struct {
	View          ViewState
	Phase         view.Phase
	StartedAt     time.Time
	Cities        []model.CityMetric
	Health        model.HealthReport
	Result        *model.PredictionResult
	ResultVisible bool
	Form          *form.Form
	Uptime        time.Duration
}

func newState(now time.Time) DashboardState {
	return DashboardState{
		View:      ViewState{ChartType: model.ChartBar, DataType: model.DataConsumption},
		Phase:     view.PhaseBooting,
		StartedAt: now,
		Health:    model.UniformHealth("", model.HealthUnknown, time.Time{}, ""),
		Form:      form.New(now),
	}
}

// Command is one UI event or internal trigger.
type Command interface {
	command() string
}

// Refresh reloads live metrics. Reason is only logged.
type Refresh struct{ Reason string }

// Submit validates and submits a prediction. A nil Request reads the form.
type Submit struct{ Request *model.PredictionRequest }

// SelectorKind names a chart control.
type SelectorKind string

const (
	SelectorChartType SelectorKind = "chart_type"
	SelectorDataType  SelectorKind = "data_type"
)

// ChangeSelector switches the chart type or data type.
type ChangeSelector struct {
	Kind  SelectorKind
	Value string
}

// Focus is sent when the viewer regains focus; it refreshes.
type Focus struct{}

// Dismiss hides the result panel. In-flight requests are left alone.
type Dismiss struct{}

// SavePrediction acknowledges the visible prediction.
type SavePrediction struct{}

// SetInput writes one form control. Field may also be "city" or "weekend".
type SetInput struct {
	Field  form.Field
	Source form.Source
	Raw    string
}

// ClearHistory empties the history log.
type ClearHistory struct{}

// DismissNotification removes one toast before it expires.
type DismissNotification struct{ ID string }

func (Refresh) command() string        { return "refresh" }
func (Submit) command() string         { return "submit" }
func (ChangeSelector) command() string { return "change_selector" }
func (Focus) command() string          { return "focus" }
func (Dismiss) command() string        { return "dismiss" }
func (SavePrediction) command() string { return "save_prediction" }
func (SetInput) command() string       { return "set_input" }
func (ClearHistory) command() string   { return "clear_history" }

func (DismissNotification) command() string { return "dismiss_notification" }

// Outcome reports what a command did.
type Outcome string

const (
	Applied  Outcome = "applied"
	Failed   Outcome = "failed"
	Dropped  Outcome = "dropped"
	Rejected Outcome = "rejected"
)
