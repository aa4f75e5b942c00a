// v0
// internal/httpapi/httpapi_test.go
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nrgchamp/dashboard/internal/controller"
	"nrgchamp/dashboard/internal/history"
	"nrgchamp/dashboard/internal/metrics"
	"nrgchamp/dashboard/internal/model"
	"nrgchamp/dashboard/internal/notify"
	"nrgchamp/dashboard/internal/view"
)

type stubBackend struct{}

func (stubBackend) LiveCities(context.Context) ([]model.CityMetric, error) {
	return []model.CityMetric{
		{City: "Delhi", PowerMW: 4800, Temperature: 38, Humidity: 55, Condition: model.ConditionHot},
		{City: "Mumbai", PowerMW: 3200, Temperature: 31, Humidity: 80, Condition: model.ConditionHumid},
	}, nil
}

func (stubBackend) Health(context.Context) model.HealthReport {
	return model.UniformHealth("healthy", model.HealthOperational, time.Now(), "")
}

func (stubBackend) Predict(_ context.Context, req model.PredictionRequest) (model.PredictionResult, error) {
	return model.PredictionResult{City: req.City, Temperature: req.Temperature, Humidity: req.Humidity, Hour: req.Hour, Prediction: 4100}, nil
}

func newTestAPI(t *testing.T) (http.Handler, *controller.Controller, *HealthState) {
	t.Helper()
	ctl, err := controller.New(stubBackend{}, controller.Deps{}, controller.Options{})
	require.NoError(t, err)
	health := NewHealthState()
	router := NewRouter(Deps{Controller: ctl, Health: health, Metrics: metrics.New()})
	return Wrap(router, io.Discard, nil, nil), ctl, health
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeCommand(t *testing.T, rec *httptest.ResponseRecorder) commandResponse {
	t.Helper()
	var out commandResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoints(t *testing.T) {
	h, _, health := newTestAPI(t)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health/live", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/health/ready", "").Code)
	health.SetReady(true)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health/ready", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPost, "/health", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nope", "").Code)
}

func TestRefreshAndBoard(t *testing.T) {
	h, _, _ := newTestAPI(t)

	rec := do(t, h, http.MethodPost, "/commands/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeCommand(t, rec)
	assert.Equal(t, controller.Applied, out.Outcome)
	require.Len(t, out.Board.Cards, 2)
	assert.Equal(t, model.TierHigh, out.Board.Cards[0].Tier)
	assert.Equal(t, model.TierMedium, out.Board.Cards[1].Tier)

	rec = do(t, h, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var board view.Board
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	assert.Equal(t, 1, board.HistorySize)
	require.NotNil(t, board.Chart)
	assert.Equal(t, []string{"Delhi", "Mumbai"}, board.Chart.Data.Labels)
}

func TestChartEndpoints(t *testing.T) {
	h, _, _ := newTestAPI(t)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/dashboard/chart", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/dashboard/chart.png", "").Code)

	do(t, h, http.MethodPost, "/commands/refresh", "")
	rec := do(t, h, http.MethodGet, "/dashboard/chart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Power Consumption"`)

	rec = do(t, h, http.MethodGet, "/dashboard/chart.png?width=400&height=200", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestPredictCommand(t *testing.T) {
	h, ctl, _ := newTestAPI(t)

	rec := do(t, h, http.MethodPost, "/commands/predict", `{"city":"Delhi","temperature":32,"humidity":70,"hour":14}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeCommand(t, rec)
	assert.True(t, out.Board.Result.Visible)
	assert.Equal(t, "4,100 MW", out.Board.Result.PredictionLabel)

	rec = do(t, h, http.MethodPost, "/commands/predict", `{"city":"Mumbai","temperature":60,"humidity":50,"hour":10}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPost, "/commands/predict", `{"city":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// empty body reads the form
	rec = do(t, h, http.MethodPost, "/commands/predict", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/commands/dismiss", "")
	assert.False(t, decodeCommand(t, rec).Board.Result.Visible)
	rec = do(t, h, http.MethodPost, "/commands/save", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	assert.Len(t, ctl.History().All(), 2)
}

func TestSelectorAndInputCommands(t *testing.T) {
	h, _, _ := newTestAPI(t)

	rec := do(t, h, http.MethodPost, "/commands/selector", `{"kind":"data_type","value":"temperature"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeCommand(t, rec)
	assert.Equal(t, model.DataTemperature, out.Board.Selectors.DataType)
	require.NotNil(t, out.Board.Chart)
	require.Len(t, out.Board.Chart.Data.Datasets, 1)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/commands/selector", `{"kind":"size","value":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/commands/selector", `{"unknown":1}`).Code)

	rec = do(t, h, http.MethodPost, "/commands/input", `{"field":"humidity","source":"slider","raw":"95"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out = decodeCommand(t, rec)
	assert.Equal(t, "95", out.Board.Form.Humidity.Input)

	rec = do(t, h, http.MethodPost, "/commands/input", `{"field":"weekend","raw":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationsEndpoints(t *testing.T) {
	h, ctl, _ := newTestAPI(t)
	item := ctl.Notifier().Warning("heads up")

	rec := do(t, h, http.MethodGet, "/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []notify.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "heads up", items[0].Message)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/notifications/"+item.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/notifications/"+item.ID, "").Code)
	assert.Empty(t, ctl.Notifier().Active())
}

func TestDebugEndpoints(t *testing.T) {
	h, _, _ := newTestAPI(t)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/debug/chart", "").Code)

	rec := do(t, h, http.MethodPost, "/debug/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/debug/chart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var inst struct {
		Generation uint64 `json:"generation"`
		Destroyed  bool   `json:"destroyed"`
		Datasets   int    `json:"datasets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inst))
	assert.EqualValues(t, 1, inst.Generation)
	assert.False(t, inst.Destroyed)
	assert.NotZero(t, inst.Datasets)

	rec = do(t, h, http.MethodGet, "/debug/history", "")
	var entries []history.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, history.TypeDataRefresh, entries[0].Type)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/debug/history", "").Code)
	rec = do(t, h, http.MethodGet, "/debug/history", "")
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/debug/simulate?city=Chennai&hour=9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res model.PredictionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Chennai", res.City)
	assert.Equal(t, 9, res.Hour)
	assert.Equal(t, controller.SimulateModel, res.Model)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _, _ := newTestAPI(t)
	do(t, h, http.MethodGet, "/health", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{route="/health",status="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	h, _, _ := newTestAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/commands/refresh", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStreamPushesBoards(t *testing.T) {
	h, ctl, _ := newTestAPI(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first view.Board
	require.NoError(t, conn.ReadJSON(&first))
	assert.Empty(t, first.Cards)

	_, err = ctl.Dispatch(context.Background(), controller.Refresh{})
	require.NoError(t, err)

	for {
		var b view.Board
		require.NoError(t, conn.ReadJSON(&b))
		if len(b.Cards) == 2 && !b.Overlay.Visible {
			break
		}
	}
}
