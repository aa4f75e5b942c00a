// v0
// internal/breaker/http.go
package breaker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient wraps an http.Client with breaker behaviour. Only transport
// errors count as failures; any HTTP status is a completed call.
type HTTPClient struct {
	Client *http.Client
	brk    *Breaker
}

// NewHTTPClient builds a breaker-guarded client. When probeURL is set, the
// half-open probe GETs it and accepts any status below 500.
func NewHTTPClient(name string, cfg Config, probeURL string, httpClient *http.Client, opts ...Option) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	var probe ProbeFunc
	if probeURL != "" {
		probe = func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
			if err != nil {
				return err
			}
			resp, err := httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			_, _ = io.CopyN(io.Discard, resp.Body, 64)
			if resp.StatusCode < 500 {
				return nil
			}
			return fmt.Errorf("probe_bad_status: %d", resp.StatusCode)
		}
	}
	return &HTTPClient{Client: httpClient, brk: New(name, cfg, probe, opts...)}
}

// Breaker exposes the underlying breaker for inspection.
func (h *HTTPClient) Breaker() *Breaker { return h.brk }

func (h *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := h.brk.Execute(req.Context(), func(ctx context.Context) error {
		r, err := h.Client.Do(req.WithContext(ctx))
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	return resp, err
}
