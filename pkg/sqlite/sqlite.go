package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// AppState is the app_state table: one JSON document per owner
type AppState struct {
	OwnerID   string    `gorm:"primaryKey"`
	Data      string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (AppState) TableName() string {
	return "app_state"
}

// DB stores snapshots in a local SQLite file
type DB struct {
	gorm    *gorm.DB
	ownerID string
}

// Open opens (creating if needed) the SQLite file at path and migrates the schema
func Open(path, ownerID string) (*DB, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	if err := gdb.AutoMigrate(&AppState{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}

	return &DB{gorm: gdb, ownerID: ownerID}, nil
}

func (d *DB) LoadSnapshot(ctx context.Context) (*model.Snapshot, error) {
	var row AppState
	err := d.gorm.WithContext(ctx).First(&row, "owner_id = ?", d.ownerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query app state: %w", err)
	}

	var snapshot model.Snapshot
	if err := json.Unmarshal([]byte(row.Data), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode app state: %w", err)
	}
	return &snapshot, nil
}

func (d *DB) SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode app state: %w", err)
	}

	row := AppState{OwnerID: d.ownerID, Data: string(data), UpdatedAt: time.Now().UTC()}
	err = d.gorm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert app state: %w", err)
	}
	return nil
}

// Close releases the underlying connection
func (d *DB) Close() {
	if sqlDB, err := d.gorm.DB(); err == nil {
		sqlDB.Close()
	}
}
