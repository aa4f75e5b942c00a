// v0
// internal/model/selectors.go
package model

import "strings"

// DataType selects which metric the primary chart series plots.
type DataType string

const (
	DataConsumption DataType = "consumption"
	DataTemperature DataType = "temperature"
	DataHumidity    DataType = "humidity"
)

// ChartType is the Chart.js type of the primary series.
type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
)

// ParseDataType normalizes raw selector input. Unknown values fall back to
// DataConsumption and report ok=false.
func ParseDataType(raw string) (DataType, bool) {
	switch DataType(strings.ToLower(strings.TrimSpace(raw))) {
	case DataConsumption:
		return DataConsumption, true
	case DataTemperature:
		return DataTemperature, true
	case DataHumidity:
		return DataHumidity, true
	default:
		return DataConsumption, false
	}
}

// ParseChartType normalizes raw selector input. Unknown values fall back to
// ChartBar and report ok=false.
func ParseChartType(raw string) (ChartType, bool) {
	switch ChartType(strings.ToLower(strings.TrimSpace(raw))) {
	case ChartBar:
		return ChartBar, true
	case ChartLine:
		return ChartLine, true
	default:
		return ChartBar, false
	}
}

// Valid reports whether d is one of the enumerated data types.
func (d DataType) Valid() bool {
	switch d {
	case DataConsumption, DataTemperature, DataHumidity:
		return true
	}
	return false
}

// Valid reports whether c is one of the enumerated chart types.
func (c ChartType) Valid() bool {
	return c == ChartBar || c == ChartLine
}

// Tier is the power-draw bucket used for card classes and bar colours.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

const (
	highTierAbove   = 4500.0
	mediumTierAbove = 3000.0
)

// TierFor buckets a power draw: above 4500 MW is high, above 3000 MW is
// medium, anything else is low.
func TierFor(powerMW float64) Tier {
	switch {
	case powerMW > highTierAbove:
		return TierHigh
	case powerMW > mediumTierAbove:
		return TierMedium
	default:
		return TierLow
	}
}
