// v0
// internal/controller/ops.go
package controller

import (
	"context"
	"fmt"
	"log/slog"

	"nrgchamp/dashboard/internal/chart"
	"nrgchamp/dashboard/internal/history"
	"nrgchamp/dashboard/internal/model"
	"nrgchamp/dashboard/internal/validate"
	"nrgchamp/dashboard/internal/view"
)

const (
	opLoadCities = "load_cities"
	opPredict    = "predict"
	opHealth     = "health"

	msgLoadingCities = "Fetching live city data..."
	msgPredicting    = "Running AI prediction..."
)

// begin takes the gate and mirrors it into ViewState. The returned func
// must be deferred.
func (c *Controller) begin(op, message string) (func(), bool) {
	tok, ok := c.gate.Begin(message)
	if !ok {
		c.rec.OpDropped(op)
		c.log.Info("operation_dropped", slog.String("op", op))
		return nil, false
	}
	c.mu.Lock()
	c.state.View.IsLoading = true
	c.mu.Unlock()
	c.publish()
	return func() {
		c.mu.Lock()
		c.state.View.IsLoading = false
		c.mu.Unlock()
		c.gate.End(tok)
		c.publish()
	}, true
}

// loadCities fetches live metrics and, on success, replaces the cities,
// rebuilds the chart with the selectors current at apply time, stamps the
// last update, notifies and logs a data_refresh entry.
func (c *Controller) loadCities(ctx context.Context, reason string) Outcome {
	end, ok := c.begin(opLoadCities, msgLoadingCities)
	if !ok {
		return Dropped
	}
	defer end()

	cities, err := c.backend.LiveCities(ctx)
	if err != nil {
		c.rec.OpCompleted(opLoadCities, "error")
		c.log.Warn("cities_refresh_failed", slog.String("reason", reason), slog.Any("err", err))
		c.notes.Error("Failed to load city data: " + err.Error())
		return Failed
	}

	now := c.now()
	c.mu.Lock()
	c.state.Cities = cities
	c.renderChartLocked()
	c.state.View.LastUpdate = model.EpochMilliFrom(now)
	c.mu.Unlock()

	c.notes.Success("City data refreshed successfully")
	c.hist.Append(history.NewEntry(history.TypeDataRefresh, now, cities))
	c.rec.OpCompleted(opLoadCities, "ok")
	c.log.Info("cities_refreshed", slog.String("reason", reason), slog.Int("cities", len(cities)))
	return Applied
}

// predict validates req (or the form when nil) and submits it. Validation
// failures never reach the backend.
func (c *Controller) predict(ctx context.Context, req *model.PredictionRequest) Outcome {
	if c.gate.IsBusy() {
		c.rec.OpDropped(opPredict)
		return Dropped
	}
	var r model.PredictionRequest
	if req != nil {
		r = *req
	} else {
		c.mu.Lock()
		r = c.state.Form.Request()
		c.mu.Unlock()
	}
	if err := validate.Request(r); err != nil {
		c.rec.OpCompleted(opPredict, "invalid")
		c.log.Info("prediction_rejected", slog.Any("err", err))
		c.notes.Error(validate.AggregateMessage)
		c.publish()
		return Rejected
	}

	end, ok := c.begin(opPredict, msgPredicting)
	if !ok {
		return Dropped
	}
	defer end()

	res, err := c.backend.Predict(ctx, r)
	if err != nil {
		c.rec.OpCompleted(opPredict, "error")
		c.log.Warn("prediction_failed", slog.String("city", r.City), slog.Any("err", err))
		c.notes.Error("Prediction failed: " + err.Error())
		return Failed
	}
	if res.City == "" {
		res.City = r.City
	}

	now := c.now()
	c.mu.Lock()
	c.state.Result = &res
	c.state.ResultVisible = true
	c.mu.Unlock()

	c.notes.Success(fmt.Sprintf("Prediction for %s: %s MW", r.City, view.FormatNumber(res.Prediction)))
	c.hist.Append(history.NewEntry(history.TypePrediction, now, res))
	c.rec.OpCompleted(opPredict, "ok")
	c.log.Info("prediction_completed", slog.String("city", r.City), slog.Float64("prediction", res.Prediction))
	return Applied
}

// checkHealth is not gated; it runs whatever else is in flight.
func (c *Controller) checkHealth(ctx context.Context) Outcome {
	rep := c.backend.Health(ctx)
	now := c.now()

	c.mu.Lock()
	c.state.Health = rep
	reachable := rep.States[model.Subsystems[0]] != model.HealthConnectionError
	if reachable {
		c.state.View.LastUpdate = model.EpochMilliFrom(now)
	}
	c.mu.Unlock()
	c.publish()

	outcome := "ok"
	if !reachable {
		outcome = "error"
	} else if rep.Status != "healthy" {
		outcome = "degraded"
	}
	c.rec.OpCompleted(opHealth, outcome)
	c.log.Info("health_checked", slog.String("status", rep.Status), slog.String("outcome", outcome))
	if !reachable {
		return Failed
	}
	return Applied
}

// renderChartLocked rebuilds the chart from the held cities. Callers hold
// c.mu.
func (c *Controller) renderChartLocked() {
	cfg := chart.Project(c.state.Cities, c.state.View.DataType, c.state.View.ChartType)
	if _, err := c.canvas.Render(cfg, c.now()); err != nil {
		c.log.Error("chart_render_failed", slog.Any("err", err))
	}
}
