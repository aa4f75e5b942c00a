// v0
// internal/chart/canvas.go
package chart

import (
	"sync"
	"sync/atomic"
	"time"

	"nrgchamp/dashboard/internal/model"
)

// Instance is one built chart. It is never updated in place; a new
// configuration always produces a new Instance.
type Instance struct {
	Generation uint64    `json:"generation"`
	Config     Config    `json:"config"`
	BuiltAt    time.Time `json:"builtAt"`
	destroyed  atomic.Bool
}

// Destroyed reports whether the instance was replaced.
func (i *Instance) Destroyed() bool { return i.destroyed.Load() }

// Canvas owns the single live chart instance.
type Canvas struct {
	mu         sync.RWMutex
	attached   bool
	current    *Instance
	generation uint64
	destroyed  int
}

// NewCanvas returns an attached canvas.
func NewCanvas() *Canvas {
	return &Canvas{attached: true}
}

// Detach simulates the chart region disappearing from the page.
func (c *Canvas) Detach() {
	c.mu.Lock()
	c.attached = false
	c.mu.Unlock()
}

// Render destroys the current instance, if any, and builds a new one from
// cfg.
func (c *Canvas) Render(cfg Config, now time.Time) (*Instance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.attached {
		return nil, &model.RenderError{Region: "chart"}
	}
	if c.current != nil {
		c.current.destroyed.Store(true)
		c.destroyed++
	}
	c.generation++
	c.current = &Instance{Generation: c.generation, Config: cfg, BuiltAt: now}
	return c.current, nil
}

// Current returns the live instance or nil before the first render.
func (c *Canvas) Current() *Instance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Stats returns how many instances were built and destroyed.
func (c *Canvas) Stats() (built uint64, destroyed int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation, c.destroyed
}
