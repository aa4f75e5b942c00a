// v0
// internal/chart/png.go
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"nrgchamp/dashboard/internal/model"
)

// ErrEmptyChart is returned when there is nothing to export.
var ErrEmptyChart = errors.New("chart has no data")

const (
	DefaultPNGWidth  = 1024
	DefaultPNGHeight = 512
)

// RenderPNG draws cfg with go-chart and writes the PNG to w. Bars are drawn
// as thick dots so that mixed bar/line configurations share one plot.
func RenderPNG(cfg Config, w io.Writer, width, height int) error {
	n := len(cfg.Data.Labels)
	if n == 0 || len(cfg.Data.Datasets) == 0 {
		return ErrEmptyChart
	}
	if width <= 0 {
		width = DefaultPNGWidth
	}
	if height <= 0 {
		height = DefaultPNGHeight
	}

	ticks := make([]gochart.Tick, n)
	xs := make([]float64, n)
	for i, label := range cfg.Data.Labels {
		xs[i] = float64(i)
		ticks[i] = gochart.Tick{Value: float64(i), Label: label}
	}

	var series []gochart.Series
	var primary, secondary []float64
	for _, ds := range cfg.Data.Datasets {
		if len(ds.Data) != n {
			return fmt.Errorf("dataset %q has %d values for %d labels", ds.Label, len(ds.Data), n)
		}
		x := xs
		// a single point has no x extent; duplicate it so the range is valid
		if n == 1 {
			ds = duplicatePoint(ds)
			x = []float64{xs[0] - 0.01, xs[0] + 0.01}
		}
		s := gochart.ContinuousSeries{
			Name:    ds.Label,
			XValues: x,
			YValues: ds.Data,
			Style:   seriesStyle(cfg.Type, ds),
		}
		if ds.YAxisID == SecondaryScale {
			s.YAxis = gochart.YAxisSecondary
			secondary = append(secondary, ds.Data...)
		} else {
			primary = append(primary, ds.Data...)
		}
		series = append(series, s)
	}

	ch := gochart.Chart{
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			Ticks: ticks,
			Range: &gochart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5},
		},
		YAxis: gochart.YAxis{
			Name:  axisName(cfg, "y"),
			Range: paddedRange(primary, beginsAtZero(cfg, "y")),
		},
		Series: series,
	}
	if len(secondary) > 0 {
		ch.YAxisSecondary = gochart.YAxis{
			Name:  axisName(cfg, SecondaryScale),
			Range: paddedRange(secondary, false),
		}
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	return ch.Render(gochart.PNG, w)
}

// duplicatePoint returns a copy of a one-point dataset with its value and
// per-point colour repeated.
func duplicatePoint(ds Dataset) Dataset {
	ds.Data = []float64{ds.Data[0], ds.Data[0]}
	if len(ds.BorderColor.PerPoint) == 1 {
		c := ds.BorderColor.PerPoint[0]
		ds.BorderColor.PerPoint = []string{c, c}
	}
	return ds
}

func seriesStyle(chartType model.ChartType, ds Dataset) gochart.Style {
	stroke := parseColor(ds.BorderColor.Solid)
	st := gochart.Style{
		StrokeColor: stroke,
		StrokeWidth: float64(ds.BorderWidth),
		DotWidth:    float64(ds.PointRadius),
		DotColor:    stroke,
	}
	if ds.Type == "" && chartType == model.ChartBar {
		st.StrokeColor = drawing.ColorTransparent
		st.StrokeWidth = 0
		st.DotWidth = 10
	}
	if st.DotWidth == 0 {
		st.DotWidth = 4
	}
	if ds.BorderColor.PerPoint != nil {
		colours := make([]drawing.Color, len(ds.BorderColor.PerPoint))
		for i, c := range ds.BorderColor.PerPoint {
			colours[i] = parseColor(c)
		}
		st.DotColorProvider = func(_, _ gochart.Range, index int, _, _ float64) drawing.Color {
			if index < len(colours) {
				return colours[index]
			}
			return drawing.ColorBlack
		}
	}
	return st
}

func axisName(cfg Config, id string) string {
	if s, ok := cfg.Options.Scales[id]; ok && s.Title != nil {
		return s.Title.Text
	}
	return ""
}

func beginsAtZero(cfg Config, id string) bool {
	s, ok := cfg.Options.Scales[id]
	return ok && s.BeginAtZero != nil && *s.BeginAtZero
}

// paddedRange keeps a non-zero span even for flat data.
func paddedRange(values []float64, fromZero bool) *gochart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if fromZero && lo > 0 {
		lo = 0
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Max(1, math.Abs(hi)*0.1)
	}
	if fromZero && lo == 0 {
		return &gochart.ContinuousRange{Min: 0, Max: hi + pad}
	}
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// parseColor understands the "#rrggbb" and "rgba(r, g, b, a)" forms emitted
// by Project.
func parseColor(s string) drawing.Color {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#") && len(s) == 7:
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return drawing.ColorBlack
		}
		return drawing.Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		parts := strings.Split(s[len("rgba("):len(s)-1], ",")
		if len(parts) != 4 {
			return drawing.ColorBlack
		}
		var rgb [3]uint8
		for i := 0; i < 3; i++ {
			v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
			if err != nil {
				return drawing.ColorBlack
			}
			rgb[i] = uint8(v)
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return drawing.ColorBlack
		}
		return drawing.Color{R: rgb[0], G: rgb[1], B: rgb[2], A: uint8(math.Round(a * 255))}
	}
	return drawing.ColorBlack
}
