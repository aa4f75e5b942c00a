// v0
// internal/controller/debug.go
package controller

import (
	"context"
	"math/rand"

	"nrgchamp/dashboard/internal/chart"
	"nrgchamp/dashboard/internal/history"
	"nrgchamp/dashboard/internal/model"
)

// SimulateModel tags results produced by Simulate.
const SimulateModel = "v1.2.0"

// Simulate fabricates a prediction without touching the backend or the
// dashboard state. Zero arguments take the scenario defaults.
func Simulate(req model.PredictionRequest) model.PredictionResult {
	if req.City == "" {
		req.City = "Delhi"
	}
	if req.Temperature == 0 {
		req.Temperature = 32
	}
	if req.Humidity == 0 {
		req.Humidity = 70
	}
	if req.Hour == 0 {
		req.Hour = 14
	}
	conf := float64(rand.Intn(30) + 70)
	return model.PredictionResult{
		City:        req.City,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		Hour:        req.Hour,
		IsWeekend:   req.IsWeekend,
		Prediction:  float64(rand.Intn(4000) + 2000),
		Confidence:  &conf,
		Model:       SimulateModel,
	}
}

// Debug groups the inspection hooks exposed on the debug routes.
type Debug struct{ c *Controller }

func (c *Controller) Debug() Debug { return Debug{c: c} }

func (d Debug) History() []history.Entry { return d.c.hist.All() }

func (d Debug) ClearHistory() { _, _ = d.c.Dispatch(context.Background(), ClearHistory{}) }

func (d Debug) ChartInstance() *chart.Instance { return d.c.canvas.Current() }

func (d Debug) ForceRefresh(ctx context.Context) Outcome {
	out, _ := d.c.Dispatch(ctx, Refresh{Reason: "debug"})
	return out
}
