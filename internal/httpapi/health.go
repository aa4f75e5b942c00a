// v0
// internal/httpapi/health.go
package httpapi

import "sync"

// HealthState tracks readiness of the HTTP surface. Liveness is true while
// the process runs; readiness is set after the controller's first boot and
// cleared during shutdown.
type HealthState struct {
	mu    sync.RWMutex
	ready bool
}

func NewHealthState() *HealthState {
	return &HealthState{}
}

func (h *HealthState) SetReady(value bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = value
}

func (h *HealthState) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}
