// v0
// internal/notify/notify_test.go
package notify

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type captureSink struct{ items []Item }

func (c *captureSink) Publish(it Item) { c.items = append(c.items, it) }

func newTestNotifier(clock *fakeClock, sinks ...Sink) *Notifier {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), clock.Now, sinks...)
}

func TestDefaultDurations(t *testing.T) {
	cases := map[Severity]time.Duration{
		SeverityError:   7 * time.Second,
		SeveritySuccess: 3 * time.Second,
		SeverityWarning: 5 * time.Second,
		SeverityInfo:    4 * time.Second,
	}
	for sev, want := range cases {
		assert.Equal(t, want, DefaultDuration(sev), sev)
	}
}

func TestNotificationsStackAndExpire(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 12, 5, 10, 0, 0, 0, time.UTC)}
	n := newTestNotifier(clock)

	n.Success("saved")
	n.Error("boom")
	n.Notify("custom", SeverityInfo, 10*time.Second)

	active := n.Active()
	require.Len(t, active, 3)
	assert.Equal(t, []string{"saved", "boom", "custom"}, []string{active[0].Message, active[1].Message, active[2].Message})

	clock.Advance(3 * time.Second)
	active = n.Active()
	require.Len(t, active, 2, "success toast expires after 3s")
	assert.Equal(t, "boom", active[0].Message)

	clock.Advance(4 * time.Second)
	active = n.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "custom", active[0].Message)
}

func TestDismissRemovesEarly(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	n := newTestNotifier(clock)
	first := n.Warning("first")
	n.Info("second")

	assert.True(t, n.Dismiss(first.ID))
	assert.False(t, n.Dismiss(first.ID))
	active := n.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "second", active[0].Message)
}

func TestUnknownSeverityFallsBackToInfo(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	sink := &captureSink{}
	n := newTestNotifier(clock, sink)

	it := n.Notify("hello", Severity("loud"), 0)
	assert.Equal(t, SeverityInfo, it.Severity)
	assert.Equal(t, "info-circle", it.Icon)
	assert.Equal(t, clock.t.Add(4*time.Second), it.ExpiresAt)
	require.Len(t, sink.items, 1)
	assert.Equal(t, it.ID, sink.items[0].ID)
}

func TestSweepCountsRemoved(t *testing.T) {
	clock := &fakeClock{t: time.Unix(100, 0)}
	n := newTestNotifier(clock)
	n.Success("a")
	n.Success("b")
	n.Error("c")

	assert.Equal(t, 2, n.Sweep(clock.t.Add(3*time.Second)))
	assert.Len(t, n.Active(), 1)
}
