package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// DefaultDebounce is the quiet period before a pending snapshot is written
const DefaultDebounce = 500 * time.Millisecond

// SyncState is the outcome of one background write
type SyncState string

const (
	SyncSaved  SyncState = "saved"
	SyncFailed SyncState = "failed"
)

// SyncStatus is passed to the status callback after every write attempt
type SyncStatus struct {
	State SyncState
	At    time.Time
	Err   error
}

// Syncer writes snapshots to a SnapshotStore in the background. Each new
// snapshot supersedes the pending one and restarts the quiet period, so a burst
// of mutations produces one write. Failures are logged and reported, never returned
// to the mutating caller.
type Syncer struct {
	store       SnapshotStore
	logger      *zap.Logger
	delay       time.Duration
	saveTimeout time.Duration
	onStatus    func(SyncStatus)

	mu      sync.Mutex
	pending *model.Snapshot
	seq     uint64
	timer   *time.Timer

	// saveMu orders writes; saved is the seq of the newest written snapshot
	saveMu sync.Mutex
	saved  uint64
}

// SyncerOption configures a Syncer
type SyncerOption func(*Syncer)

// WithDebounce sets the quiet period; zero writes on every Persist call
func WithDebounce(d time.Duration) SyncerOption {
	return func(s *Syncer) { s.delay = d }
}

// WithStatusCallback registers fn to be told about each write
func WithStatusCallback(fn func(SyncStatus)) SyncerOption {
	return func(s *Syncer) { s.onStatus = fn }
}

// WithSaveTimeout bounds each background write
func WithSaveTimeout(d time.Duration) SyncerOption {
	return func(s *Syncer) { s.saveTimeout = d }
}

// NewSyncer creates a syncer writing to store
func NewSyncer(store SnapshotStore, logger *zap.Logger, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		store:       store,
		logger:      logger,
		delay:       DefaultDebounce,
		saveTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Persist schedules snapshot to be written after the quiet period. The caller
// must not modify snapshot afterwards.
func (s *Syncer) Persist(snapshot *model.Snapshot) {
	s.mu.Lock()
	s.seq++
	s.pending = snapshot
	seq := s.seq

	if s.delay <= 0 {
		s.pending = nil
		s.mu.Unlock()
		s.write(context.Background(), snapshot, seq)
		return
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fire)
	s.mu.Unlock()
}

func (s *Syncer) fire() {
	snapshot, seq := s.takePending()
	if snapshot == nil {
		return
	}
	s.write(context.Background(), snapshot, seq)
}

func (s *Syncer) takePending() (*model.Snapshot, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return snapshot, s.seq
}

// Pending reports whether a snapshot is waiting to be written
func (s *Syncer) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Flush writes any pending snapshot now and returns the write error, if any
func (s *Syncer) Flush(ctx context.Context) error {
	snapshot, seq := s.takePending()
	if snapshot == nil {
		return nil
	}
	return s.write(ctx, snapshot, seq)
}

func (s *Syncer) write(ctx context.Context, snapshot *model.Snapshot, seq uint64) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	// a newer snapshot already reached the store
	if seq <= s.saved {
		return nil
	}

	if s.saveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.saveTimeout)
		defer cancel()
	}

	err := s.store.SaveSnapshot(ctx, snapshot)
	status := SyncStatus{State: SyncSaved, At: time.Now(), Err: err}
	if err != nil {
		status.State = SyncFailed
		s.logger.Error("Failed to persist snapshot",
			zap.Uint64("seq", seq),
			zap.Error(err))
	} else {
		s.saved = seq
		s.logger.Debug("Snapshot persisted",
			zap.Uint64("seq", seq),
			zap.Int("workers", len(snapshot.Workers)),
			zap.Int("assignments", snapshot.Schedule.Len()))
	}

	if s.onStatus != nil {
		s.onStatus(status)
	}
	if err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}
