// v0
// internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter(n *atomic.Int32) func(context.Context) {
	return func(context.Context) { n.Add(1) }
}

func TestAddRejectsBadTasks(t *testing.T) {
	s := New(nil, nil)
	assert.Error(t, s.Add(Task{Name: "", Every: time.Second, Run: func(context.Context) {}}))
	assert.Error(t, s.Add(Task{Name: "x", Every: 0, Run: func(context.Context) {}}))
	require.NoError(t, s.Add(Task{Name: "x", Every: time.Second, Run: func(context.Context) {}}))
	assert.Error(t, s.Add(Task{Name: "x", Every: time.Second, Run: func(context.Context) {}}))
}

func TestAdvanceFiresPerInterval(t *testing.T) {
	var refresh, health, uptime atomic.Int32
	s := New(nil, nil)
	require.NoError(t, s.Add(Task{Name: "refresh", Every: 30 * time.Second, Run: counter(&refresh)}))
	require.NoError(t, s.Add(Task{Name: "health", Every: 60 * time.Second, Run: counter(&health)}))
	require.NoError(t, s.Add(Task{Name: "uptime", Every: time.Second, Run: counter(&uptime)}))

	ctx := context.Background()
	s.Advance(ctx, 29*time.Second)
	assert.EqualValues(t, 0, refresh.Load())
	s.Advance(ctx, time.Second)
	assert.EqualValues(t, 1, refresh.Load())
	s.Advance(ctx, 90*time.Second)
	assert.EqualValues(t, 4, refresh.Load())
	assert.EqualValues(t, 2, health.Load())
	assert.EqualValues(t, 120, uptime.Load())
	assert.Equal(t, 4, s.Runs("refresh"))
}

func TestPanickingTaskKeepsFiring(t *testing.T) {
	var panics []string
	var calls atomic.Int32
	s := New(nil, func(task string, _ any) { panics = append(panics, task) })
	require.NoError(t, s.Add(Task{Name: "refresh", Every: time.Second, Run: func(context.Context) {
		calls.Add(1)
		panic("boom")
	}}))

	s.Advance(context.Background(), 3*time.Second)
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, []string{"refresh", "refresh", "refresh"}, panics)
}

func TestTick(t *testing.T) {
	var n atomic.Int32
	s := New(nil, nil)
	require.NoError(t, s.Add(Task{Name: "health", Every: time.Minute, Run: counter(&n)}))

	require.NoError(t, s.Tick(context.Background(), "health"))
	assert.EqualValues(t, 1, n.Load())
	assert.ErrorIs(t, s.Tick(context.Background(), "nope"), ErrUnknownTask)
}

func TestRunUsesRealTickers(t *testing.T) {
	var n atomic.Int32
	s := New(nil, nil)
	require.NoError(t, s.Add(Task{Name: "fast", Every: 5 * time.Millisecond, Run: counter(&n)}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
