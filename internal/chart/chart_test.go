// v0
// internal/chart/chart_test.go
package chart

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nrgchamp/dashboard/internal/model"
)

func sampleCities() []model.CityMetric {
	return []model.CityMetric{
		{City: "Delhi", PowerMW: 4800, Temperature: 38, Humidity: 40, Condition: model.ConditionHot},
		{City: "Mumbai", PowerMW: 3200, Temperature: 31, Humidity: 80, Condition: model.ConditionHumid},
		{City: "Shimla", PowerMW: 900, Temperature: 12, Humidity: 55, Condition: model.ConditionCold},
	}
}

func TestProjectConsumptionAddsOverlay(t *testing.T) {
	cfg := Project([]model.CityMetric{{City: "Delhi", PowerMW: 4800, Temperature: 38}}, model.DataConsumption, model.ChartBar)

	assert.Equal(t, model.ChartBar, cfg.Type)
	assert.Equal(t, []string{"Delhi"}, cfg.Data.Labels)
	require.Len(t, cfg.Data.Datasets, 2)

	bars := cfg.Data.Datasets[0]
	assert.Equal(t, []float64{4800}, bars.Data)
	assert.Equal(t, []model.Tier{model.TierHigh}, bars.Tiers)
	assert.Equal(t, []string{"rgba(239, 68, 68, 0.7)"}, bars.BackgroundColor.PerPoint)

	overlay := cfg.Data.Datasets[1]
	assert.Equal(t, "line", overlay.Type)
	assert.Equal(t, SecondaryScale, overlay.YAxisID)
	assert.Equal(t, []float64{38}, overlay.Data)
	assert.Equal(t, "right", cfg.Options.Scales[SecondaryScale].Position)
}

func TestProjectTierBoundaries(t *testing.T) {
	cities := []model.CityMetric{
		{City: "a", PowerMW: 4501},
		{City: "b", PowerMW: 4500},
		{City: "c", PowerMW: 3001},
		{City: "d", PowerMW: 3000},
		{City: "e", PowerMW: 2999},
	}
	cfg := Project(cities, model.DataConsumption, model.ChartBar)
	assert.Equal(t, []model.Tier{
		model.TierHigh, model.TierMedium, model.TierMedium, model.TierLow, model.TierLow,
	}, cfg.Data.Datasets[0].Tiers)
}

func TestProjectOtherDataTypesHaveNoOverlay(t *testing.T) {
	cases := []struct {
		dataType model.DataType
		want     []float64
		title    string
		zero     bool
	}{
		{model.DataTemperature, []float64{38, 31, 12}, "Temperature (°C)", false},
		{model.DataHumidity, []float64{40, 80, 55}, "Humidity (%)", true},
	}
	for _, tc := range cases {
		t.Run(string(tc.dataType), func(t *testing.T) {
			cfg := Project(sampleCities(), tc.dataType, model.ChartLine)
			require.Len(t, cfg.Data.Datasets, 1)
			assert.Equal(t, tc.want, cfg.Data.Datasets[0].Data)
			_, hasSecondary := cfg.Options.Scales[SecondaryScale]
			assert.False(t, hasSecondary)
			y := cfg.Options.Scales["y"]
			assert.Equal(t, tc.title, y.Title.Text)
			require.NotNil(t, y.BeginAtZero)
			assert.Equal(t, tc.zero, *y.BeginAtZero)
		})
	}
}

func TestProjectFallsBackOnUnknownSelectors(t *testing.T) {
	cfg := Project(sampleCities(), model.DataType("pressure"), model.ChartType("radar"))
	assert.Equal(t, model.ChartBar, cfg.Type)
	assert.Len(t, cfg.Data.Datasets, 2)
	assert.Equal(t, " MW", cfg.Options.Scales["y"].Ticks.Suffix)
}

func TestProjectIsRepeatableAndLeavesInputAlone(t *testing.T) {
	cities := sampleCities()
	before := sampleCities()

	first := Project(cities, model.DataConsumption, model.ChartBar)
	second := Project(cities, model.DataConsumption, model.ChartBar)

	assert.Equal(t, before, cities)
	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestProjectEmptyInput(t *testing.T) {
	cfg := Project(nil, model.DataConsumption, model.ChartBar)
	assert.Empty(t, cfg.Data.Labels)
	require.Len(t, cfg.Data.Datasets, 2)
	assert.Empty(t, cfg.Data.Datasets[0].Data)
}

func TestPaintJSON(t *testing.T) {
	b, err := json.Marshal(Paint{Solid: "#fff"})
	require.NoError(t, err)
	assert.Equal(t, `"#fff"`, string(b))

	var p Paint
	require.NoError(t, json.Unmarshal([]byte(`["#a","#b"]`), &p))
	assert.Equal(t, []string{"#a", "#b"}, p.PerPoint)
	assert.Empty(t, p.Solid)
}

func TestCanvasRenderDestroysPrevious(t *testing.T) {
	c := NewCanvas()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first, err := c.Render(Project(sampleCities(), model.DataConsumption, model.ChartBar), now)
	require.NoError(t, err)
	second, err := c.Render(Project(sampleCities(), model.DataHumidity, model.ChartBar), now)
	require.NoError(t, err)

	assert.True(t, first.Destroyed())
	assert.False(t, second.Destroyed())
	assert.Same(t, second, c.Current())
	built, destroyed := c.Stats()
	assert.EqualValues(t, 2, built)
	assert.Equal(t, 1, destroyed)
	assert.Len(t, c.Current().Config.Data.Datasets, 1)
}

func TestCanvasDestroyedConcurrentWithRender(t *testing.T) {
	c := NewCanvas()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first, err := c.Render(Config{}, now)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_, _ = c.Render(Config{}, now)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = first.Destroyed()
		}
	}()
	wg.Wait()
	assert.True(t, first.Destroyed())
}

func TestCanvasDetachedReportsRenderError(t *testing.T) {
	c := NewCanvas()
	c.Detach()
	_, err := c.Render(Config{}, time.Now())
	assert.ErrorIs(t, err, model.ErrRender)
	assert.Nil(t, c.Current())
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPNG(Project(sampleCities(), model.DataConsumption, model.ChartBar), &buf, 640, 320)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestRenderPNGEmpty(t *testing.T) {
	err := RenderPNG(Project(nil, model.DataConsumption, model.ChartBar), &bytes.Buffer{}, 0, 0)
	assert.ErrorIs(t, err, ErrEmptyChart)
}

func TestSingleCityKeepsPointColour(t *testing.T) {
	cfg := Project(sampleCities()[:1], model.DataConsumption, model.ChartBar)
	ds := cfg.Data.Datasets[0]
	require.Len(t, ds.BorderColor.PerPoint, 1)

	dup := duplicatePoint(ds)
	assert.Len(t, ds.BorderColor.PerPoint, 1)
	assert.Equal(t, []float64{ds.Data[0], ds.Data[0]}, dup.Data)

	st := seriesStyle(cfg.Type, dup)
	require.NotNil(t, st.DotColorProvider)
	want := parseColor(ds.BorderColor.PerPoint[0])
	assert.Equal(t, want, st.DotColorProvider(nil, nil, 0, 0, 0))
	assert.Equal(t, want, st.DotColorProvider(nil, nil, 1, 0, 0))

	var buf bytes.Buffer
	require.NoError(t, RenderPNG(cfg, &buf, 320, 200))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestParseColor(t *testing.T) {
	c := parseColor("#ef4444")
	assert.Equal(t, uint8(0xef), c.R)
	assert.Equal(t, uint8(0x44), c.G)
	assert.Equal(t, uint8(255), c.A)

	c = parseColor("rgba(16, 185, 129, 0.7)")
	assert.Equal(t, uint8(185), c.G)
	assert.InDelta(t, 178, int(c.A), 1)
}
