// v0
// internal/breaker/breaker.go
// Package breaker guards the backend HTTP calls and the Kafka history mirror
// with a consecutive-failure circuit breaker.
package breaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// State is the breaker position.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned without calling the operation while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open; fast-fail")

// Config holds the breaker tunables.
type Config struct {
	MaxFailures      int           // consecutive failures before opening
	ResetTimeout     time.Duration // wait before probing again
	SuccessesToClose int           // successes required in HalfOpen before closing
}

// DefaultConfig matches the values used when no tunable is configured.
func DefaultConfig() Config {
	return Config{MaxFailures: 5, ResetTimeout: 30 * time.Second, SuccessesToClose: 1}
}

// ProbeFunc checks whether the protected dependency is reachable again.
type ProbeFunc func(ctx context.Context) error

// Option customises a Breaker.
type Option func(*Breaker)

// WithLogger routes breaker events to log.
func WithLogger(log *slog.Logger) Option {
	return func(b *Breaker) {
		if log != nil {
			b.log = log
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// OnStateChange registers fn to be called after every transition.
func OnStateChange(fn func(name string, from, to State)) Option {
	return func(b *Breaker) { b.onChange = fn }
}

type Breaker struct {
	name     string
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
	probe    ProbeFunc
	onChange func(name string, from, to State)

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
}

// New returns a closed breaker. Non-positive tunables fall back to
// DefaultConfig.
func New(name string, cfg Config, probe ProbeFunc, opts ...Option) *Breaker {
	def := DefaultConfig()
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = def.ResetTimeout
	}
	if cfg.SuccessesToClose < 1 {
		cfg.SuccessesToClose = def.SuccessesToClose
	}
	b := &Breaker{
		name:  name,
		cfg:   cfg,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:   time.Now,
		probe: probe,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log.Info("breaker_created", "name", name, "maxFailures", cfg.MaxFailures, "resetTimeout", cfg.ResetTimeout.String())
	return b
}

// Name returns the breaker name used in logs and metrics.
func (b *Breaker) Name() string { return b.name }

// State returns the current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute runs op unless the breaker is open. After ResetTimeout the breaker
// half-opens, runs the probe (if any) and lets op through; op's error is
// returned unchanged.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	if b.state == Open {
		since := b.now().Sub(b.openedAt)
		if since < b.cfg.ResetTimeout {
			b.mu.Unlock()
			b.log.Warn("breaker_fast_fail", "name", b.name, "since_open", since.String())
			return ErrOpen
		}
		b.transition(HalfOpen)
		b.mu.Unlock()
		if b.probe != nil {
			if err := b.probe(ctx); err != nil {
				b.log.Warn("breaker_probe_failed", "name", b.name, "error", err.Error())
				b.mu.Lock()
				b.trip()
				b.mu.Unlock()
				return ErrOpen
			}
			b.log.Info("breaker_probe_ok", "name", b.name)
		}
	} else {
		b.mu.Unlock()
	}

	err := op(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.onSuccess()
		return nil
	}
	b.onFailure(err)
	return err
}

// callers hold b.mu
func (b *Breaker) onSuccess() {
	switch b.state {
	case HalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessesToClose {
			b.failures = 0
			b.transition(Closed)
		}
	default:
		b.failures = 0
	}
}

// callers hold b.mu
func (b *Breaker) onFailure(err error) {
	b.failures++
	b.log.Warn("operation_failure", "name", b.name, "failures", b.failures, "error", err.Error())
	if b.state == HalfOpen || b.failures >= b.cfg.MaxFailures {
		b.trip()
	}
}

// callers hold b.mu
func (b *Breaker) trip() {
	b.openedAt = b.now()
	b.transition(Open)
}

// callers hold b.mu
func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.successes = 0
	if to == Open {
		b.log.Error("breaker_opened", "name", b.name, "failures", b.failures)
	} else {
		b.log.Info("breaker_state_change", "name", b.name, "from", from.String(), "to", to.String())
	}
	if b.onChange != nil {
		b.onChange(b.name, from, to)
	}
}
