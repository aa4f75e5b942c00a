// v0
// internal/fetch/client.go
// Package fetch is the transport to the energy backend: live city metrics,
// health and predictions.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"nrgchamp/dashboard/internal/model"
)

const (
	citiesPath  = "/api/cities/live"
	healthPath  = "/api/health"
	predictPath = "/api/predict"

	// maxBody bounds how much of a response is read.
	maxBody = 4 << 20
)

// Doer is satisfied by *http.Client and the breaker-guarded client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer receives one sample per backend call.
type Observer interface {
	ObserveCall(endpoint, outcome string, elapsed time.Duration)
}

// Call outcomes reported to the Observer.
const (
	OutcomeOK           = "ok"
	OutcomeNetworkError = "network_error"
	OutcomeAPIError     = "api_error"
)

type Client struct {
	base string
	h    Doer
	log  *slog.Logger
	obs  Observer
	now  func() time.Time
}

// New builds a client for base. A nil doer gets an http.Client with a 10s
// timeout.
func New(base string, h Doer, log *slog.Logger, obs Observer) *Client {
	if h == nil {
		h = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		h:    h,
		log:  log.With("component", "fetch"),
		obs:  obs,
		now:  time.Now,
	}
}

type citiesResponse struct {
	Success bool               `json:"success"`
	Cities  []model.CityMetric `json:"cities"`
	Error   string             `json:"error,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type predictResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	model.PredictionResult
}

// LiveCities fetches the current readings. Every failure is a
// *model.FetchError.
func (c *Client) LiveCities(ctx context.Context) ([]model.CityMetric, error) {
	start := c.now()
	status, body, err := c.do(ctx, http.MethodGet, citiesPath, nil)
	if err != nil {
		c.observe(citiesPath, OutcomeNetworkError, start)
		return nil, &model.FetchError{Message: err.Error(), Kind: model.ErrNetwork}
	}
	if !is2xx(status) {
		c.observe(citiesPath, OutcomeNetworkError, start)
		return nil, &model.FetchError{Status: status, Message: statusMessage(status), Kind: model.ErrNetwork}
	}
	var payload citiesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		c.observe(citiesPath, OutcomeNetworkError, start)
		return nil, &model.FetchError{Status: status, Message: fmt.Sprintf("invalid response: %v", err), Kind: model.ErrNetwork}
	}
	if !payload.Success {
		c.observe(citiesPath, OutcomeAPIError, start)
		msg := payload.Error
		if msg == "" {
			msg = "Failed to load city data"
		}
		return nil, &model.FetchError{Status: status, Message: msg, Kind: model.ErrAPI}
	}
	c.observe(citiesPath, OutcomeOK, start)
	if payload.Cities == nil {
		payload.Cities = []model.CityMetric{}
	}
	return payload.Cities, nil
}

// Health never fails; problems are folded into the report.
func (c *Client) Health(ctx context.Context) model.HealthReport {
	start := c.now()
	status, body, err := c.do(ctx, http.MethodGet, healthPath, nil)
	if err != nil {
		c.observe(healthPath, OutcomeNetworkError, start)
		return model.UniformHealth("", model.HealthConnectionError, c.now(), err.Error())
	}
	var payload healthResponse
	if jsonErr := json.Unmarshal(body, &payload); jsonErr != nil {
		c.observe(healthPath, OutcomeNetworkError, start)
		return model.UniformHealth("", model.HealthConnectionError, c.now(), fmt.Sprintf("invalid response: %v", jsonErr))
	}
	if is2xx(status) && payload.Status == "healthy" {
		c.observe(healthPath, OutcomeOK, start)
		return model.UniformHealth(payload.Status, model.HealthOperational, c.now(), "")
	}
	c.observe(healthPath, OutcomeAPIError, start)
	detail := ""
	if !is2xx(status) {
		detail = statusMessage(status)
	}
	return model.UniformHealth(payload.Status, model.HealthOffline, c.now(), detail)
}

// Predict posts req. Every failure is a *model.PredictionError.
func (c *Client) Predict(ctx context.Context, req model.PredictionRequest) (model.PredictionResult, error) {
	start := c.now()
	raw, err := json.Marshal(req)
	if err != nil {
		return model.PredictionResult{}, &model.PredictionError{Message: err.Error(), Kind: model.ErrNetwork}
	}
	status, body, err := c.do(ctx, http.MethodPost, predictPath, raw)
	if err != nil {
		c.observe(predictPath, OutcomeNetworkError, start)
		return model.PredictionResult{}, &model.PredictionError{Message: err.Error(), Kind: model.ErrNetwork}
	}
	var payload predictResponse
	jsonErr := json.Unmarshal(body, &payload)
	if !is2xx(status) {
		c.observe(predictPath, OutcomeNetworkError, start)
		msg := statusMessage(status)
		if jsonErr == nil && payload.Error != "" {
			msg = payload.Error
		}
		return model.PredictionResult{}, &model.PredictionError{Message: msg, Kind: model.ErrNetwork}
	}
	if jsonErr != nil {
		c.observe(predictPath, OutcomeNetworkError, start)
		return model.PredictionResult{}, &model.PredictionError{Message: fmt.Sprintf("invalid response: %v", jsonErr), Kind: model.ErrNetwork}
	}
	if !payload.Success {
		c.observe(predictPath, OutcomeAPIError, start)
		msg := payload.Error
		if msg == "" {
			msg = "Prediction failed"
		}
		return model.PredictionResult{}, &model.PredictionError{Message: msg, Kind: model.ErrAPI}
	}
	c.observe(predictPath, OutcomeOK, start)
	return payload.PredictionResult, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.h.Do(req)
	if err != nil {
		c.log.Warn("backend_call_failed", "method", method, "path", path, "error", err)
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !is2xx(resp.StatusCode) {
		c.log.Warn("backend_bad_status", "method", method, "path", path, "status", resp.StatusCode)
	}
	return resp.StatusCode, b, nil
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	if c.obs != nil {
		c.obs.ObserveCall(endpoint, outcome, c.now().Sub(start))
	}
}

func is2xx(status int) bool { return status >= 200 && status < 300 }

func statusMessage(status int) string {
	return fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
}
