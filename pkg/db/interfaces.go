package db

import (
	"context"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// SnapshotStore loads and saves the whole store state as one document.
// Postgres, SQLite and the in-memory store implement this interface.
type SnapshotStore interface {
	// LoadSnapshot returns nil, nil when nothing has been saved yet
	LoadSnapshot(ctx context.Context) (*model.Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) error
}

// Database is a snapshot store that holds resources
type Database interface {
	SnapshotStore
	Close()
}
