// v0
// internal/chart/project.go
// Package chart turns live city readings into the chart configuration
// rendered by the dashboard, keeps the single live chart instance, and can
// export a chart as PNG.
package chart

import (
	"nrgchamp/dashboard/internal/model"
)

// SecondaryScale is the id of the right-hand temperature scale.
const SecondaryScale = "y1"

const (
	axisTextColor = "#94a3b8"
	gridColor     = "rgba(255, 255, 255, 0.1)"
	fontFamily    = "var(--font-sans)"
)

type swatch struct {
	fill   string
	stroke string
}

var tierSwatches = map[model.Tier]swatch{
	model.TierHigh:   {fill: "rgba(239, 68, 68, 0.7)", stroke: "#ef4444"},
	model.TierMedium: {fill: "rgba(245, 158, 11, 0.7)", stroke: "#f59e0b"},
	model.TierLow:    {fill: "rgba(16, 185, 129, 0.7)", stroke: "#10b981"},
}

var (
	temperatureSwatch = swatch{fill: "rgba(59, 130, 246, 0.7)", stroke: "#3b82f6"}
	humiditySwatch    = swatch{fill: "rgba(6, 182, 212, 0.7)", stroke: "#06b6d4"}
	overlaySwatch     = swatch{fill: "rgba(59, 130, 246, 0.1)", stroke: "#3b82f6"}
)

// Project builds the chart configuration for cities. Invalid selectors are
// replaced by the defaults (consumption, bar). The input slice is only read.
func Project(cities []model.CityMetric, dataType model.DataType, chartType model.ChartType) Config {
	if !dataType.Valid() {
		dataType, _ = model.ParseDataType(string(dataType))
	}
	if !chartType.Valid() {
		chartType, _ = model.ParseChartType(string(chartType))
	}

	labels := make([]string, len(cities))
	for i, c := range cities {
		labels[i] = c.City
	}

	var datasets []Dataset
	var axisTitle string
	switch dataType {
	case model.DataTemperature:
		axisTitle = "Temperature (°C)"
		datasets = append(datasets, solidSeries("Temperature", "°C", pluck(cities, temperatureOf), temperatureSwatch))
	case model.DataHumidity:
		axisTitle = "Humidity (%)"
		datasets = append(datasets, solidSeries("Humidity", "%", pluck(cities, humidityOf), humiditySwatch))
	default:
		axisTitle = "Power Consumption (MW)"
		datasets = append(datasets, consumptionSeries(cities), overlaySeries(cities))
	}

	return Config{
		Type:    chartType,
		Data:    Data{Labels: labels, Datasets: datasets},
		Options: options(dataType, axisTitle),
	}
}

func consumptionSeries(cities []model.CityMetric) Dataset {
	fills := make([]string, len(cities))
	strokes := make([]string, len(cities))
	tiers := make([]model.Tier, len(cities))
	for i, c := range cities {
		tier := model.TierFor(c.PowerMW)
		tiers[i] = tier
		fills[i] = tierSwatches[tier].fill
		strokes[i] = tierSwatches[tier].stroke
	}
	return Dataset{
		Label:           "Power Consumption",
		Unit:            "MW",
		Data:            pluck(cities, powerOf),
		BackgroundColor: Paint{PerPoint: fills},
		BorderColor:     Paint{PerPoint: strokes},
		BorderWidth:     2,
		BorderRadius:    5,
		Order:           1,
		Tiers:           tiers,
	}
}

// overlaySeries is the temperature line drawn over the consumption bars on
// the right-hand scale.
func overlaySeries(cities []model.CityMetric) Dataset {
	return Dataset{
		Label:                "Temperature (°C)",
		Unit:                 "°C",
		Data:                 pluck(cities, temperatureOf),
		Type:                 "line",
		BackgroundColor:      Paint{Solid: overlaySwatch.fill},
		BorderColor:          Paint{Solid: overlaySwatch.stroke},
		BorderWidth:          3,
		PointBackgroundColor: overlaySwatch.stroke,
		PointRadius:          6,
		PointHoverRadius:     8,
		Fill:                 true,
		Order:                0,
		YAxisID:              SecondaryScale,
	}
}

func solidSeries(label, unit string, values []float64, sw swatch) Dataset {
	return Dataset{
		Label:           label,
		Unit:            unit,
		Data:            values,
		BackgroundColor: Paint{Solid: sw.fill},
		BorderColor:     Paint{Solid: sw.stroke},
		BorderWidth:     2,
		BorderRadius:    5,
		Order:           1,
	}
}

func options(dataType model.DataType, axisTitle string) Options {
	scales := map[string]Scale{
		"x": {
			Grid:  Grid{Color: gridColor, DrawBorder: boolPtr(false)},
			Ticks: Ticks{Color: axisTextColor, Font: Font{Family: fontFamily}},
		},
		"y": {
			BeginAtZero: boolPtr(dataType != model.DataTemperature),
			Grid:        Grid{Color: gridColor, DrawBorder: boolPtr(false)},
			Ticks:       Ticks{Color: axisTextColor, Font: Font{Family: fontFamily}, Suffix: ticksSuffix(dataType)},
			Title:       axisTitleOf(axisTitle),
		},
	}
	if dataType == model.DataConsumption {
		scales[SecondaryScale] = Scale{
			Position: "right",
			Grid:     Grid{DrawOnChartArea: boolPtr(false)},
			Ticks:    Ticks{Color: axisTextColor, Font: Font{Family: fontFamily}},
			Title:    axisTitleOf("Temperature (°C)"),
		}
	}
	return Options{
		Responsive:          true,
		MaintainAspectRatio: false,
		Interaction:         Interaction{Mode: "index", Intersect: false},
		Plugins: Plugins{
			Legend: Legend{
				Position: "top",
				Labels:   LegendLabel{Color: axisTextColor, Font: Font{Size: 12, Family: fontFamily}, Padding: 20},
			},
			Tooltip: Tooltip{
				BackgroundColor: "rgba(15, 23, 42, 0.95)",
				TitleColor:      "#f1f5f9",
				BodyColor:       "#f1f5f9",
				BorderColor:     "#3b82f6",
				BorderWidth:     1,
				Padding:         12,
				CornerRadius:    6,
			},
		},
		Scales:    scales,
		Animation: Animation{Duration: 1000, Easing: "easeOutQuart"},
	}
}

func ticksSuffix(dataType model.DataType) string {
	if dataType == model.DataConsumption {
		return " MW"
	}
	return ""
}

func axisTitleOf(text string) *Title {
	return &Title{
		Display: true,
		Text:    text,
		Color:   axisTextColor,
		Font:    Font{Family: fontFamily, Size: 12, Weight: "normal"},
	}
}

func pluck(cities []model.CityMetric, f func(model.CityMetric) float64) []float64 {
	out := make([]float64, len(cities))
	for i, c := range cities {
		out[i] = f(c)
	}
	return out
}

func powerOf(c model.CityMetric) float64       { return c.PowerMW }
func temperatureOf(c model.CityMetric) float64 { return c.Temperature }
func humidityOf(c model.CityMetric) float64    { return c.Humidity }

func boolPtr(v bool) *bool { return &v }
