package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// MemoryStore keeps the last saved snapshot as encoded JSON. It backs the
// "memory" storage backend and tests.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int

	// SaveErr, when set, is returned by every SaveSnapshot call
	SaveErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) LoadSnapshot(ctx context.Context) (*model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return nil, nil
	}
	var snapshot model.Snapshot
	if err := json.Unmarshal(m.data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}

func (m *MemoryStore) SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	m.data = data
	m.saves++
	return nil
}

// Saves counts successful writes
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryStore) Close() {}
