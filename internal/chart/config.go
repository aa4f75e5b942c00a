// v0
// internal/chart/config.go
package chart

import (
	"encoding/json"

	"nrgchamp/dashboard/internal/model"
)

// Config mirrors the Chart.js configuration object consumed by the
// rendering collaborator.
type Config struct {
	Type    model.ChartType `json:"type"`
	Data    Data            `json:"data"`
	Options Options         `json:"options"`
}

// Data carries the x labels and the series.
type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset is one series. Type is set only when it differs from the chart
// type, as for the temperature overlay line.
type Dataset struct {
	Label                string       `json:"label"`
	Unit                 string       `json:"unit"`
	Data                 []float64    `json:"data"`
	Type                 string       `json:"type,omitempty"`
	BackgroundColor      Paint        `json:"backgroundColor"`
	BorderColor          Paint        `json:"borderColor"`
	BorderWidth          int          `json:"borderWidth"`
	BorderRadius         int          `json:"borderRadius,omitempty"`
	PointBackgroundColor string       `json:"pointBackgroundColor,omitempty"`
	PointRadius          int          `json:"pointRadius,omitempty"`
	PointHoverRadius     int          `json:"pointHoverRadius,omitempty"`
	Fill                 bool         `json:"fill,omitempty"`
	Order                int          `json:"order"`
	YAxisID              string       `json:"yAxisID,omitempty"`
	Tiers                []model.Tier `json:"tiers,omitempty"`
}

// Paint is either one colour for the whole series or one colour per point.
type Paint struct {
	Solid    string
	PerPoint []string
}

func (p Paint) MarshalJSON() ([]byte, error) {
	if p.PerPoint != nil {
		return json.Marshal(p.PerPoint)
	}
	return json.Marshal(p.Solid)
}

func (p *Paint) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		p.Solid = ""
		return json.Unmarshal(b, &p.PerPoint)
	}
	p.PerPoint = nil
	return json.Unmarshal(b, &p.Solid)
}

// Options holds the scale and plugin contract.
type Options struct {
	Responsive          bool             `json:"responsive"`
	MaintainAspectRatio bool             `json:"maintainAspectRatio"`
	Interaction         Interaction      `json:"interaction"`
	Plugins             Plugins          `json:"plugins"`
	Scales              map[string]Scale `json:"scales"`
	Animation           Animation        `json:"animation"`
}

type Interaction struct {
	Mode      string `json:"mode"`
	Intersect bool   `json:"intersect"`
}

type Plugins struct {
	Legend  Legend  `json:"legend"`
	Tooltip Tooltip `json:"tooltip"`
}

type Legend struct {
	Position string      `json:"position"`
	Labels   LegendLabel `json:"labels"`
}

type LegendLabel struct {
	Color   string `json:"color"`
	Font    Font   `json:"font"`
	Padding int    `json:"padding"`
}

type Tooltip struct {
	BackgroundColor string `json:"backgroundColor"`
	TitleColor      string `json:"titleColor"`
	BodyColor       string `json:"bodyColor"`
	BorderColor     string `json:"borderColor"`
	BorderWidth     int    `json:"borderWidth"`
	Padding         int    `json:"padding"`
	CornerRadius    int    `json:"cornerRadius"`
}

type Font struct {
	Size   int    `json:"size,omitempty"`
	Family string `json:"family,omitempty"`
	Weight string `json:"weight,omitempty"`
}

// Scale is one axis. Position "right" marks the secondary scale.
type Scale struct {
	Position    string `json:"position,omitempty"`
	BeginAtZero *bool  `json:"beginAtZero,omitempty"`
	Grid        Grid   `json:"grid"`
	Ticks       Ticks  `json:"ticks"`
	Title       *Title `json:"title,omitempty"`
}

type Grid struct {
	Color           string `json:"color,omitempty"`
	DrawBorder      *bool  `json:"drawBorder,omitempty"`
	DrawOnChartArea *bool  `json:"drawOnChartArea,omitempty"`
}

// Ticks.Suffix replaces the callback that appended " MW" in the browser.
type Ticks struct {
	Color  string `json:"color"`
	Font   Font   `json:"font"`
	Suffix string `json:"suffix,omitempty"`
}

type Title struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
	Color   string `json:"color"`
	Font    Font   `json:"font"`
}

type Animation struct {
	Duration int    `json:"duration"`
	Easing   string `json:"easing"`
}
