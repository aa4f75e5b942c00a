// v0
// internal/gate/gate_test.go
package gate

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type busyRecorder struct {
	transitions []bool
}

func (b *busyRecorder) SetBusy(busy bool) { b.transitions = append(b.transitions, busy) }

func TestBeginShowsOverlayAndEndHidesIt(t *testing.T) {
	rec := &busyRecorder{}
	g := New(rec)

	tok, ok := g.Begin("Fetching live city data...")
	require.True(t, ok)
	assert.True(t, g.IsBusy())
	assert.Equal(t, Overlay{Visible: true, Message: "Fetching live city data..."}, g.Overlay())

	assert.True(t, g.End(tok))
	assert.False(t, g.IsBusy())
	assert.Equal(t, Overlay{}, g.Overlay())
	assert.Equal(t, []bool{true, false}, rec.transitions)
}

func TestBeginWhileBusyIsDropped(t *testing.T) {
	g := New(nil)
	first, ok := g.Begin("first")
	require.True(t, ok)

	second, ok := g.Begin("second")
	assert.False(t, ok)
	assert.Zero(t, second)
	assert.Equal(t, "first", g.Overlay().Message)

	require.True(t, g.End(first))
	_, ok = g.Begin("third")
	assert.True(t, ok)
}

func TestEndIgnoresStaleToken(t *testing.T) {
	g := New(nil)
	first, _ := g.Begin("a")
	require.True(t, g.End(first))

	current, ok := g.Begin("b")
	require.True(t, ok)

	assert.False(t, g.End(first), "stale token must not release a newer owner")
	assert.False(t, g.End(0))
	assert.True(t, g.IsBusy())
	assert.True(t, g.End(current))
}

func TestConcurrentBeginAdmitsExactlyOne(t *testing.T) {
	g := New(nil)
	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := g.Begin("race"); ok {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), admitted.Load())
}
