package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

func snapshotWith(names ...string) *model.Snapshot {
	snap := &model.Snapshot{Version: model.SchemaVersion, Schedule: model.NewSchedule()}
	for i, name := range names {
		snap.Workers = append(snap.Workers, model.Worker{ID: string(rune('a' + i)), Name: name})
	}
	return snap
}

func TestSyncer_FlushWritesLatestOnly(t *testing.T) {
	mem := NewMemoryStore()
	s := NewSyncer(mem, zap.NewNop(), WithDebounce(time.Hour))

	s.Persist(snapshotWith("Anna"))
	s.Persist(snapshotWith("Anna", "Bela"))
	assert.True(t, s.Pending())
	assert.Equal(t, 0, mem.Saves())

	require.NoError(t, s.Flush(context.Background()))
	assert.False(t, s.Pending())
	assert.Equal(t, 1, mem.Saves())

	got, err := mem.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Workers, 2)

	// nothing pending is a no-op
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 1, mem.Saves())
}

func TestSyncer_DebouncedWrite(t *testing.T) {
	mem := NewMemoryStore()
	done := make(chan SyncStatus, 1)
	s := NewSyncer(mem, zap.NewNop(),
		WithDebounce(10*time.Millisecond),
		WithStatusCallback(func(st SyncStatus) { done <- st }))

	s.Persist(snapshotWith("Anna"))

	select {
	case st := <-done:
		assert.Equal(t, SyncSaved, st.State)
		assert.NoError(t, st.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("background write did not happen")
	}
	assert.Equal(t, 1, mem.Saves())
}

func TestSyncer_FailureIsReportedNotRaised(t *testing.T) {
	mem := NewMemoryStore()
	mem.SaveErr = errors.New("connection refused")

	var mu sync.Mutex
	var statuses []SyncStatus
	s := NewSyncer(mem, zap.NewNop(),
		WithDebounce(0),
		WithStatusCallback(func(st SyncStatus) {
			mu.Lock()
			defer mu.Unlock()
			statuses = append(statuses, st)
		}))

	// Persist has no error to return; the failure goes to the callback
	s.Persist(snapshotWith("Anna"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, statuses, 1)
	assert.Equal(t, SyncFailed, statuses[0].State)
	assert.ErrorContains(t, statuses[0].Err, "connection refused")
	assert.Equal(t, 0, mem.Saves())
}

func TestSyncer_FlushReturnsError(t *testing.T) {
	mem := NewMemoryStore()
	mem.SaveErr = errors.New("disk full")
	s := NewSyncer(mem, zap.NewNop(), WithDebounce(time.Hour))

	s.Persist(snapshotWith("Anna"))
	err := s.Flush(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist snapshot")
}

func TestMemoryStore_EmptyLoad(t *testing.T) {
	got, err := NewMemoryStore().LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}
