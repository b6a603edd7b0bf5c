package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// LoadSnapshot reads the owner's app_state row; no row yields nil, nil
func (d *DB) LoadSnapshot(ctx context.Context) (*model.Snapshot, error) {
	var data []byte
	err := d.pool.QueryRow(ctx, `
		SELECT data FROM app_state WHERE owner_id = $1
	`, d.ownerID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query app state: %w", err)
	}

	return decodeSnapshot(data)
}

// SaveSnapshot upserts the owner's app_state row
func (d *DB) SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode app state: %w", err)
	}

	_, err = d.pool.Exec(ctx, `
		INSERT INTO app_state (owner_id, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (owner_id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, d.ownerID, data)
	if err != nil {
		return fmt.Errorf("failed to upsert app state: %w", err)
	}
	return nil
}

func decodeSnapshot(data []byte) (*model.Snapshot, error) {
	var snapshot model.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode app state: %w", err)
	}
	return &snapshot, nil
}
