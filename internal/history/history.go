// v0
// internal/history/history.go
// Package history keeps the transient, capacity-bounded log of completed
// refreshes and predictions.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"nrgchamp/dashboard/internal/model"
)

// DefaultCapacity is the number of entries retained before the oldest is
// evicted.
const DefaultCapacity = 50

// Type classifies an entry.
type Type string

const (
	TypeDataRefresh Type = "data_refresh"
	TypePrediction  Type = "prediction"
)

// Entry is one logged operation. Data holds []model.CityMetric for
// refreshes and model.PredictionResult for predictions.
type Entry struct {
	ID        string           `json:"id"`
	Type      Type             `json:"type"`
	Timestamp model.EpochMilli `json:"timestamp"`
	Data      any              `json:"data"`
}

// NewEntry stamps an entry with a fresh id.
func NewEntry(typ Type, at time.Time, data any) Entry {
	return Entry{ID: uuid.NewString(), Type: typ, Timestamp: model.EpochMilliFrom(at), Data: data}
}

// Mirror receives every appended entry. Implementations must not block for
// long; the log calls them synchronously after the append.
type Mirror interface {
	Mirror(Entry)
}

// Observer is told the log size after every mutation.
type Observer interface {
	SetHistorySize(n int)
}

// Log is an append-only FIFO with a fixed capacity. It is safe for
// concurrent use.
type Log struct {
	mu      sync.RWMutex
	cap     int
	entries []Entry
	mirrors []Mirror
	obs     Observer
}

// New returns an empty log. Capacities outside 1..DefaultCapacity use
// DefaultCapacity.
func New(capacity int, obs Observer, mirrors ...Mirror) *Log {
	if capacity <= 0 || capacity > DefaultCapacity {
		capacity = DefaultCapacity
	}
	return &Log{cap: capacity, entries: make([]Entry, 0, capacity), mirrors: mirrors, obs: obs}
}

// AddMirror attaches an extra mirror after construction.
func (l *Log) AddMirror(m Mirror) {
	if m == nil {
		return
	}
	l.mu.Lock()
	l.mirrors = append(l.mirrors, m)
	l.mu.Unlock()
}

// Capacity returns the configured bound.
func (l *Log) Capacity() int { return l.cap }

// Append adds e, evicting the oldest entries beyond capacity. It returns
// the number of evicted entries.
func (l *Log) Append(e Entry) int {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	evicted := 0
	if over := len(l.entries) - l.cap; over > 0 {
		kept := make([]Entry, l.cap)
		copy(kept, l.entries[over:])
		l.entries = kept
		evicted = over
	}
	size := len(l.entries)
	mirrors := append([]Mirror(nil), l.mirrors...)
	l.mu.Unlock()

	if l.obs != nil {
		l.obs.SetHistorySize(size)
	}
	for _, m := range mirrors {
		m.Mirror(e)
	}
	return evicted
}

// All returns a snapshot ordered oldest to newest.
func (l *Log) All() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear drops every entry.
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = make([]Entry, 0, l.cap)
	l.mu.Unlock()
	if l.obs != nil {
		l.obs.SetHistorySize(0)
	}
}
