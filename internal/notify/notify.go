// v0
// internal/notify/notify.go
// Package notify keeps the stack of transient, toast-like messages shown to
// the dashboard user.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DefaultDuration returns how long a notification of the given severity
// stays visible when the caller does not choose.
func DefaultDuration(s Severity) time.Duration {
	switch s {
	case SeverityError:
		return 7 * time.Second
	case SeveritySuccess:
		return 3 * time.Second
	case SeverityWarning:
		return 5 * time.Second
	default:
		return 4 * time.Second
	}
}

func iconFor(s Severity) string {
	switch s {
	case SeveritySuccess:
		return "check-circle"
	case SeverityError:
		return "exclamation-circle"
	case SeverityWarning:
		return "exclamation-triangle"
	default:
		return "info-circle"
	}
}

// Item is one displayed notification.
type Item struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Sink receives a copy of every notification, e.g. to mirror it to a
// message broker.
type Sink interface {
	Publish(Item)
}

// Notifier is safe for concurrent use.
type Notifier struct {
	mu    sync.Mutex
	items []Item
	now   func() time.Time
	log   *slog.Logger
	sinks []Sink
}

// New builds a notifier. now defaults to time.Now.
func New(log *slog.Logger, now func() time.Time, sinks ...Sink) *Notifier {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{now: now, log: log.With(slog.String("component", "notifier")), sinks: sinks}
}

// AddSink attaches an extra mirror after construction.
func (n *Notifier) AddSink(s Sink) {
	if s == nil {
		return
	}
	n.mu.Lock()
	n.sinks = append(n.sinks, s)
	n.mu.Unlock()
}

// Notify enqueues message. A non-positive duration selects the severity
// default. Unknown severities are shown as info.
func (n *Notifier) Notify(message string, severity Severity, duration time.Duration) Item {
	switch severity {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
	default:
		severity = SeverityInfo
	}
	if duration <= 0 {
		duration = DefaultDuration(severity)
	}
	now := n.now()
	item := Item{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		Icon:      iconFor(severity),
		CreatedAt: now,
		ExpiresAt: now.Add(duration),
	}

	n.mu.Lock()
	n.items = append(n.items, item)
	sinks := append([]Sink(nil), n.sinks...)
	n.mu.Unlock()

	if severity == SeverityError {
		n.log.Error("notification", slog.String("severity", string(severity)), slog.String("message", message))
	} else {
		n.log.Info("notification", slog.String("severity", string(severity)), slog.String("message", message))
	}
	for _, s := range sinks {
		s.Publish(item)
	}
	return item
}

func (n *Notifier) Error(message string) Item   { return n.Notify(message, SeverityError, 0) }
func (n *Notifier) Success(message string) Item { return n.Notify(message, SeveritySuccess, 0) }
func (n *Notifier) Warning(message string) Item { return n.Notify(message, SeverityWarning, 0) }
func (n *Notifier) Info(message string) Item    { return n.Notify(message, SeverityInfo, 0) }

// Dismiss removes the notification with id before it expires.
func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, it := range n.items {
		if it.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return true
		}
	}
	return false
}

// Sweep drops every notification expired at now and returns how many were
// removed.
func (n *Notifier) Sweep(now time.Time) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	kept := n.items[:0]
	removed := 0
	for _, it := range n.items {
		if !now.Before(it.ExpiresAt) {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	n.items = kept
	return removed
}

// Active returns the visible notifications in insertion order.
func (n *Notifier) Active() []Item {
	n.Sweep(n.now())
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Item, len(n.items))
	copy(out, n.items)
	return out
}
