// v0
// internal/httpapi/handlers.go
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"nrgchamp/dashboard/internal/chart"
	"nrgchamp/dashboard/internal/controller"
	"nrgchamp/dashboard/internal/form"
	"nrgchamp/dashboard/internal/model"
	"nrgchamp/dashboard/internal/view"
)

const maxBodyBytes = 1 << 16

type commandResponse struct {
	Outcome controller.Outcome `json:"outcome"`
	Board   view.Board         `json:"board"`
}

type selectorBody struct {
	Kind  controller.SelectorKind `json:"kind"`
	Value string                  `json:"value"`
}

type inputBody struct {
	Field  form.Field  `json:"field"`
	Source form.Source `json:"source"`
	Raw    string      `json:"raw"`
}

func (a *api) getBoard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.ctl.Board())
}

func (a *api) getChart(w http.ResponseWriter, _ *http.Request) {
	inst := a.ctl.Canvas().Current()
	if inst == nil {
		writeError(w, http.StatusNotFound, "chart not rendered yet")
		return
	}
	writeJSON(w, http.StatusOK, inst.Config)
}

func (a *api) getChartPNG(w http.ResponseWriter, r *http.Request) {
	inst := a.ctl.Canvas().Current()
	if inst == nil {
		writeError(w, http.StatusNotFound, "chart not rendered yet")
		return
	}
	width := queryInt(r, "width", chart.DefaultPNGWidth)
	height := queryInt(r, "height", chart.DefaultPNGHeight)

	var buf bytes.Buffer
	if err := chart.RenderPNG(inst.Config, &buf, width, height); err != nil {
		if errors.Is(err, chart.ErrEmptyChart) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		a.log.Error("chart_png_failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "chart export failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="energy-chart.png"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (a *api) postRefresh(w http.ResponseWriter, r *http.Request) {
	a.dispatch(w, r, controller.Refresh{Reason: "manual"})
}

func (a *api) debugRefresh(w http.ResponseWriter, r *http.Request) {
	out := a.ctl.Debug().ForceRefresh(r.Context())
	a.respond(w, out, nil)
}

func (a *api) postFocus(w http.ResponseWriter, r *http.Request) {
	a.dispatch(w, r, controller.Focus{})
}

func (a *api) postDismiss(w http.ResponseWriter, r *http.Request) {
	a.dispatch(w, r, controller.Dismiss{})
}

func (a *api) postSave(w http.ResponseWriter, r *http.Request) {
	a.dispatch(w, r, controller.SavePrediction{})
}

// postPredict submits the JSON request in the body, or the current form
// when the body is empty.
func (a *api) postPredict(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	var cmd controller.Submit
	if len(bytes.TrimSpace(raw)) > 0 {
		var req model.PredictionRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid prediction request")
			return
		}
		cmd.Request = &req
	}
	a.dispatch(w, r, cmd)
}

func (a *api) postSelector(w http.ResponseWriter, r *http.Request) {
	var body selectorBody
	if !decode(w, r, &body) {
		return
	}
	a.dispatch(w, r, controller.ChangeSelector{Kind: body.Kind, Value: body.Value})
}

func (a *api) postInput(w http.ResponseWriter, r *http.Request) {
	var body inputBody
	if !decode(w, r, &body) {
		return
	}
	if body.Source == "" {
		body.Source = form.SourceInput
	}
	a.dispatch(w, r, controller.SetInput{Field: body.Field, Source: body.Source, Raw: body.Raw})
}

func (a *api) listNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.ctl.Notifier().Active())
}

func (a *api) dismissNotification(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	out, err := a.ctl.Dispatch(r.Context(), controller.DismissNotification{ID: id})
	if err != nil || out != controller.Applied {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) getHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.ctl.Debug().History())
}

type chartInstanceResponse struct {
	Generation uint64    `json:"generation"`
	BuiltAt    time.Time `json:"builtAt"`
	Destroyed  bool      `json:"destroyed"`
	Datasets   int       `json:"datasets"`
	Labels     []string  `json:"labels"`
}

func (a *api) debugChart(w http.ResponseWriter, _ *http.Request) {
	inst := a.ctl.Debug().ChartInstance()
	if inst == nil {
		writeError(w, http.StatusNotFound, "chart not rendered yet")
		return
	}
	writeJSON(w, http.StatusOK, chartInstanceResponse{
		Generation: inst.Generation,
		BuiltAt:    inst.BuiltAt,
		Destroyed:  inst.Destroyed(),
		Datasets:   len(inst.Config.Data.Datasets),
		Labels:     inst.Config.Data.Labels,
	})
}

func (a *api) clearHistory(w http.ResponseWriter, _ *http.Request) {
	a.ctl.Debug().ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

// simulate returns a random prediction without touching the dashboard.
// Query parameters override the scenario defaults.
func (a *api) simulate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := model.PredictionRequest{City: q.Get("city")}
	if v, err := strconv.ParseFloat(q.Get("temperature"), 64); err == nil {
		req.Temperature = v
	}
	if v, err := strconv.ParseFloat(q.Get("humidity"), 64); err == nil {
		req.Humidity = v
	}
	if v, err := strconv.Atoi(q.Get("hour")); err == nil {
		req.Hour = v
	}
	if v, err := strconv.ParseBool(q.Get("weekend")); err == nil {
		req.IsWeekend = v
	}
	writeJSON(w, http.StatusOK, controller.Simulate(req))
}

func (a *api) dispatch(w http.ResponseWriter, r *http.Request, cmd controller.Command) {
	out, err := a.ctl.Dispatch(r.Context(), cmd)
	a.respond(w, out, err)
}

func (a *api) respond(w http.ResponseWriter, out controller.Outcome, err error) {
	if err != nil {
		a.log.Warn("command_rejected", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, statusFor(out), commandResponse{Outcome: out, Board: a.ctl.Board()})
}

func statusFor(out controller.Outcome) int {
	switch out {
	case controller.Applied:
		return http.StatusOK
	case controller.Dropped:
		return http.StatusConflict
	case controller.Rejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
