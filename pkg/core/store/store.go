package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/calendar"
	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// Persister receives a deep copy of the store after every successful mutation.
// Implementations must not block for long and must handle their own failures.
type Persister interface {
	Persist(snapshot *model.Snapshot)
}

// HolidaySource supplies the default entries used to seed a year on first access
type HolidaySource interface {
	Holidays(year int) []model.Holiday
	MandatoryVacations(year int) []model.Holiday
}

// Store owns workers, departments, calendar entries and the schedule.
// It is not safe for concurrent use; callers that share it must serialize access.
type Store struct {
	workers     []model.Worker
	departments []string
	schedule    model.Schedule
	holidays    map[int][]model.Holiday
	mandatory   map[int][]model.Holiday
	currency    string

	persister Persister
	calendar  HolidaySource
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithPersister sets the collaborator notified after each mutation
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithCalendar overrides the default holiday source
func WithCalendar(c HolidaySource) Option {
	return func(s *Store) { s.calendar = c }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithCurrency sets the currency code used when the snapshot has none
func WithCurrency(code string) Option {
	return func(s *Store) {
		if s.currency == "" {
			s.currency = code
		}
	}
}

// New builds a store from a loaded snapshot, or an empty one when snapshot is nil.
// The snapshot is copied and normalized; the caller keeps ownership of its value.
func New(snapshot *model.Snapshot, opts ...Option) *Store {
	var snap *model.Snapshot
	if snapshot == nil {
		snap = &model.Snapshot{Version: model.SchemaVersion}
	} else {
		snap = snapshot.Clone()
	}
	res := snap.Normalize()

	s := &Store{
		workers:     snap.Workers,
		departments: snap.Departments,
		schedule:    snap.Schedule,
		holidays:    snap.Holidays,
		mandatory:   snap.MandatoryVacations,
		currency:    snap.Currency,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.calendar == nil {
		s.calendar = calendar.Default()
	}

	if res.Changed() {
		s.logger.Info("Normalized loaded snapshot",
			zap.Int("workers_upgraded", res.WorkersUpgraded),
			zap.Int("assignments_refiled", res.AssignmentsRefiled),
			zap.Int("duplicate_ids_dropped", res.DuplicateIDsDropped),
			zap.Int("invalid_dates_dropped", res.InvalidDatesDropped),
			zap.Int("departments_recovered", res.DepartmentsRecovered))
	}
	s.logger.Debug("Store initialized",
		zap.Int("workers", len(s.workers)),
		zap.Int("departments", len(s.departments)),
		zap.Int("assignments", s.schedule.Len()))

	return s
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() *model.Snapshot {
	snap := &model.Snapshot{
		Version:            model.SchemaVersion,
		Workers:            s.workers,
		Schedule:           s.schedule,
		Departments:        s.departments,
		Holidays:           s.holidays,
		MandatoryVacations: s.mandatory,
		Currency:           s.currency,
		SavedAt:            s.now(),
	}
	return snap.Clone()
}

// Currency returns the configured currency code
func (s *Store) Currency() string {
	return s.currency
}

func (s *Store) persist() {
	if s.persister == nil {
		return
	}
	s.persister.Persist(s.Snapshot())
}

// View gives read access to the schedule. fn must not retain or modify it.
func (s *Store) View(fn func(model.Schedule)) {
	fn(s.schedule)
}

// Mutate gives write access to the schedule. fn must validate before it changes
// anything; the store persists only when fn returns nil.
func (s *Store) Mutate(fn func(model.Schedule) error) error {
	if err := fn(s.schedule); err != nil {
		return err
	}
	s.persist()
	return nil
}

// Workers returns every worker in insertion order
func (s *Store) Workers() []model.Worker {
	out := make([]model.Worker, len(s.workers))
	copy(out, s.workers)
	return out
}

// ActiveWorkers returns the workers with IsActive set
func (s *Store) ActiveWorkers() []model.Worker {
	var out []model.Worker
	for _, w := range s.workers {
		if w.IsActive {
			out = append(out, w)
		}
	}
	return out
}

// Worker looks a worker up by id
func (s *Store) Worker(id string) (model.Worker, bool) {
	if i := s.workerIndex(id); i >= 0 {
		return s.workers[i], true
	}
	return model.Worker{}, false
}

// FindWorkerByEmail matches case-insensitively; blank emails never match
func (s *Store) FindWorkerByEmail(email string) (model.Worker, bool) {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.Worker{}, false
	}
	for _, w := range s.workers {
		if strings.EqualFold(strings.TrimSpace(w.Email), email) {
			return w, true
		}
	}
	return model.Worker{}, false
}

// FindWorkerByName matches the display name or full name case-insensitively
func (s *Store) FindWorkerByName(name string) (model.Worker, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Worker{}, false
	}
	for _, w := range s.workers {
		if strings.EqualFold(w.DisplayName(), name) || strings.EqualFold(w.FullName(), name) {
			return w, true
		}
	}
	return model.Worker{}, false
}

func (s *Store) workerIndex(id string) int {
	for i, w := range s.workers {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// AddWorker validates and stores a new worker, assigning an id when none is given
func (s *Store) AddWorker(w model.Worker) (model.Worker, error) {
	if w.ID == "" {
		w.ID = uuid.New().String()
	} else if s.workerIndex(w.ID) >= 0 {
		return model.Worker{}, model.Invalid("id", "worker %q already exists", w.ID)
	}
	w, err := s.checkWorker(w)
	if err != nil {
		return model.Worker{}, err
	}

	s.workers = append(s.workers, w)
	s.logger.Info("Worker added", zap.String("worker_id", w.ID), zap.String("name", w.DisplayName()))
	s.persist()
	return w, nil
}

// UpdateWorker replaces the stored worker with the same id
func (s *Store) UpdateWorker(w model.Worker) (model.Worker, error) {
	i := s.workerIndex(w.ID)
	if i < 0 {
		return model.Worker{}, model.NotFound("worker", w.ID)
	}
	w, err := s.checkWorker(w)
	if err != nil {
		return model.Worker{}, err
	}

	s.workers[i] = w
	s.logger.Info("Worker updated", zap.String("worker_id", w.ID))
	s.persist()
	return w, nil
}

func (s *Store) checkWorker(w model.Worker) (model.Worker, error) {
	w.Department = model.NormalizeDepartment(w.Department)
	w.WorkTypes = append([]string(nil), w.WorkTypes...)
	if err := model.ValidateWorker(w); err != nil {
		return model.Worker{}, err
	}
	if w.Department != "" && !s.hasDepartment(w.Department) {
		return model.Worker{}, model.Invalid("department", "unknown department %q", w.Department)
	}
	return w, nil
}

// RemoveWorker deletes a worker and every assignment that references it.
// It returns the number of assignments removed.
func (s *Store) RemoveWorker(id string) (int, error) {
	i := s.workerIndex(id)
	if i < 0 {
		return 0, model.NotFound("worker", id)
	}

	s.workers = append(s.workers[:i:i], s.workers[i+1:]...)
	removed := s.schedule.RemoveWorker(id)

	s.logger.Info("Worker removed",
		zap.String("worker_id", id),
		zap.Int("assignments_removed", removed))
	s.persist()
	return removed, nil
}

// Departments returns the department names in insertion order
func (s *Store) Departments() []string {
	return append([]string(nil), s.departments...)
}

func (s *Store) hasDepartment(name string) bool {
	for _, d := range s.departments {
		if d == name {
			return true
		}
	}
	return false
}

// AddDepartment adds a lowercase department name
func (s *Store) AddDepartment(name string) (string, error) {
	name = model.NormalizeDepartment(name)
	if name == "" {
		return "", model.Invalid("name", "is required")
	}
	if s.hasDepartment(name) {
		return "", fmt.Errorf("%q: %w", name, model.ErrDuplicateDepartment)
	}

	s.departments = append(s.departments, name)
	s.logger.Info("Department added", zap.String("department", name))
	s.persist()
	return name, nil
}

// RemoveDepartment deletes a department no worker references, active or not
func (s *Store) RemoveDepartment(name string) error {
	name = model.NormalizeDepartment(name)
	if !s.hasDepartment(name) {
		return model.NotFound("department", name)
	}

	var users []string
	for _, w := range s.workers {
		if w.Department == name {
			users = append(users, w.DisplayName())
		}
	}
	if len(users) > 0 {
		return fmt.Errorf("%q is used by %s: %w", name, strings.Join(users, ", "), model.ErrDepartmentInUse)
	}

	kept := s.departments[:0:0]
	for _, d := range s.departments {
		if d != name {
			kept = append(kept, d)
		}
	}
	s.departments = kept
	s.logger.Info("Department removed", zap.String("department", name))
	s.persist()
	return nil
}
