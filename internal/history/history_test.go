// v0
// internal/history/history_test.go
package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sizeRecorder struct{ last int }

func (s *sizeRecorder) SetHistorySize(n int) { s.last = n }

type mirrorRecorder struct{ ids []string }

func (m *mirrorRecorder) Mirror(e Entry) { m.ids = append(m.ids, e.ID) }

func TestAppendKeepsInsertionOrder(t *testing.T) {
	log := New(DefaultCapacity, nil)
	base := time.Date(2024, 12, 5, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		log.Append(NewEntry(TypeDataRefresh, base.Add(time.Duration(i)*time.Second), i))
	}
	all := log.All()
	require.Len(t, all, 3)
	for i, e := range all {
		assert.Equal(t, i, e.Data)
		assert.Equal(t, base.Add(time.Duration(i)*time.Second).UnixMilli(), int64(e.Timestamp))
	}
}

func TestCapacityEvictsOldestFirst(t *testing.T) {
	obs := &sizeRecorder{}
	log := New(DefaultCapacity, obs)
	for i := 0; i < 120; i++ {
		typ := TypeDataRefresh
		if i%3 == 0 {
			typ = TypePrediction
		}
		log.Append(NewEntry(typ, time.Unix(int64(i), 0), i))
		assert.LessOrEqual(t, log.Len(), DefaultCapacity)
	}
	all := log.All()
	require.Len(t, all, DefaultCapacity)
	for i, e := range all {
		assert.Equal(t, 70+i, e.Data, "entry %d", i)
	}
	assert.Equal(t, DefaultCapacity, obs.last)
}

func TestFiftyOneAppendsDropTheFirst(t *testing.T) {
	log := New(DefaultCapacity, nil)
	first := NewEntry(TypeDataRefresh, time.Unix(0, 0), "first")
	log.Append(first)
	for i := 1; i <= 50; i++ {
		log.Append(NewEntry(TypeDataRefresh, time.Unix(int64(i), 0), fmt.Sprintf("r%d", i)))
	}
	all := log.All()
	require.Len(t, all, 50)
	for _, e := range all {
		assert.NotEqual(t, first.ID, e.ID)
	}
	assert.Equal(t, "r1", all[0].Data)
	assert.Equal(t, "r50", all[49].Data)
}

func TestSnapshotIsACopy(t *testing.T) {
	log := New(2, nil)
	log.Append(NewEntry(TypePrediction, time.Unix(1, 0), "a"))
	snap := log.All()
	snap[0].Data = "mutated"
	assert.Equal(t, "a", log.All()[0].Data)
}

func TestCapacityNeverExceedsDefault(t *testing.T) {
	log := New(500, nil)
	assert.Equal(t, DefaultCapacity, log.Capacity())
	for i := 0; i < 120; i++ {
		log.Append(NewEntry(TypeDataRefresh, time.Unix(int64(i), 0), i))
	}
	assert.Equal(t, DefaultCapacity, log.Len())
}

func TestClearAndMirror(t *testing.T) {
	obs := &sizeRecorder{}
	m := &mirrorRecorder{}
	log := New(0, obs, m)
	assert.Equal(t, DefaultCapacity, log.Capacity())

	e := NewEntry(TypePrediction, time.Unix(1, 0), nil)
	log.Append(e)
	assert.Equal(t, []string{e.ID}, m.ids)

	log.Clear()
	assert.Zero(t, log.Len())
	assert.Zero(t, obs.last)
}
