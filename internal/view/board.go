// v0
// internal/view/board.go
package view

import (
	"nrgchamp/dashboard/internal/chart"
	"nrgchamp/dashboard/internal/form"
	"nrgchamp/dashboard/internal/gate"
	"nrgchamp/dashboard/internal/model"
	"nrgchamp/dashboard/internal/notify"
)

// Phase of the dashboard lifecycle.
type Phase string

const (
	PhaseBooting Phase = "booting"
	PhaseReady   Phase = "ready"
)

// Selectors are the chart controls.
type Selectors struct {
	ChartType model.ChartType `json:"chartType"`
	DataType  model.DataType  `json:"dataType"`
}

// Board is everything a viewer needs to draw the dashboard.
type Board struct {
	Phase           Phase         `json:"phase"`
	Status          []Indicator   `json:"status"`
	Cards           []Card        `json:"cards"`
	Selectors       Selectors     `json:"selectors"`
	Chart           *chart.Config `json:"chart,omitempty"`
	ChartGeneration uint64        `json:"chartGeneration"`
	Form            form.State    `json:"form"`
	Result          ResultPanel   `json:"result"`
	Overlay         gate.Overlay  `json:"overlay"`
	Notifications   []notify.Item `json:"notifications"`
	Uptime          string        `json:"uptime"`
	LastUpdate      string        `json:"lastUpdate,omitempty"`
	LastUpdated     string        `json:"lastUpdated,omitempty"`
	HistorySize     int           `json:"historySize"`
}
