// v0
// internal/gate/gate.go
// Package gate implements the single busy flag that keeps top-level
// dashboard operations from overlapping. A request that arrives while the
// gate is held is dropped, never queued.
package gate

import "sync"

// Token proves ownership of the gate. The zero Token owns nothing.
type Token uint64

// Overlay is the visual state bound to the busy flag.
type Overlay struct {
	Visible bool   `json:"visible"`
	Message string `json:"message,omitempty"`
}

// Observer is notified on every busy transition.
type Observer interface {
	SetBusy(busy bool)
}

// Gate is safe for concurrent use.
type Gate struct {
	mu      sync.Mutex
	owner   Token
	next    Token
	message string
	obs     Observer
}

// New returns an idle gate. obs may be nil.
func New(obs Observer) *Gate {
	return &Gate{obs: obs}
}

// Begin claims the gate and shows the overlay with message. It returns
// ok=false without side effects when another operation already holds it.
func (g *Gate) Begin(message string) (Token, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.owner != 0 {
		return 0, false
	}
	g.next++
	g.owner = g.next
	g.message = message
	if g.obs != nil {
		g.obs.SetBusy(true)
	}
	return g.owner, true
}

// End releases the gate if tok still owns it. Stale or zero tokens are
// ignored and reported with false.
func (g *Gate) End(tok Token) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if tok == 0 || g.owner != tok {
		return false
	}
	g.owner = 0
	g.message = ""
	if g.obs != nil {
		g.obs.SetBusy(false)
	}
	return true
}

// IsBusy reports whether an operation currently holds the gate.
func (g *Gate) IsBusy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.owner != 0
}

// Overlay returns the current overlay state.
func (g *Gate) Overlay() Overlay {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Overlay{Visible: g.owner != 0, Message: g.message}
}
