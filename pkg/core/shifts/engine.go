package shifts

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/period"
)

// Store is the part of the entity store the engine works against
type Store interface {
	Worker(id string) (model.Worker, bool)
	View(fn func(model.Schedule))
	Mutate(fn func(model.Schedule) error) error
}

// Config holds the booking policy
type Config struct {
	// OneRegularShiftPerDay rejects a second regular shift for a worker on the
	// same date even when the times do not overlap
	OneRegularShiftPerDay bool
	// RevalidateOnMove runs the double-booking checks against the destination date
	RevalidateOnMove bool
}

// DefaultConfig enables both policies
func DefaultConfig() Config {
	return Config{OneRegularShiftPerDay: true, RevalidateOnMove: true}
}

// Engine creates, edits, moves and removes assignments and handles week level
// copy, paste and clear. Like the store it is single threaded.
type Engine struct {
	store     Store
	cfg       Config
	logger    *zap.Logger
	clipboard *Clipboard
	newID     func() string
}

// NewEngine builds an engine over store
func NewEngine(store Store, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  store,
		cfg:    cfg,
		logger: logger,
		newID:  func() string { return uuid.New().String() },
	}
}

// Draft is a proposed assignment
type Draft struct {
	WorkerID  string          `json:"workerId" validate:"required"`
	Date      string          `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string          `json:"startTime" validate:"required,datetime=15:04"`
	EndTime   string          `json:"endTime" validate:"required,datetime=15:04"`
	Position  string          `json:"position,omitempty"`
	Kind      model.ShiftKind `json:"kind,omitempty" validate:"omitempty,oneof=regular vacation sick holiday training"`
	Notes     string          `json:"notes,omitempty"`
}

// DraftOf turns a stored assignment back into a draft
func DraftOf(a model.Assignment) Draft {
	return Draft{
		WorkerID:  a.WorkerID,
		Date:      a.Date,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Position:  a.Position,
		Kind:      a.Kind,
		Notes:     a.Notes,
	}
}

// Patch lists the fields an edit changes; nil fields are kept
type Patch struct {
	WorkerID  *string          `json:"workerId,omitempty"`
	Date      *string          `json:"date,omitempty"`
	StartTime *string          `json:"startTime,omitempty"`
	EndTime   *string          `json:"endTime,omitempty"`
	Position  *string          `json:"position,omitempty"`
	Kind      *model.ShiftKind `json:"kind,omitempty"`
	Notes     *string          `json:"notes,omitempty"`
}

func (p Patch) apply(d Draft) Draft {
	if p.WorkerID != nil {
		d.WorkerID = *p.WorkerID
	}
	if p.Date != nil {
		d.Date = *p.Date
	}
	if p.StartTime != nil {
		d.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		d.EndTime = *p.EndTime
	}
	if p.Position != nil {
		d.Position = *p.Position
	}
	if p.Kind != nil {
		d.Kind = *p.Kind
	}
	if p.Notes != nil {
		d.Notes = *p.Notes
	}
	return d
}

// prepare validates d against the schedule, ignoring excludeID, and returns
// the record to commit without an id
func (e *Engine) prepare(s model.Schedule, d Draft, excludeID string) (model.Assignment, error) {
	if d.Kind == "" {
		d.Kind = model.KindRegular
	}
	if err := model.ValidateStruct(d); err != nil {
		return model.Assignment{}, err
	}
	if !period.IsValidDateString(d.Date) {
		return model.Assignment{}, model.Invalid("date", "must be a real YYYY-MM-DD date")
	}

	worker, ok := e.store.Worker(d.WorkerID)
	if !ok {
		return model.Assignment{}, model.Invalid("workerId", "unknown worker %q", d.WorkerID)
	}

	start, _ := period.ParseClock(d.StartTime)
	end, _ := period.ParseClock(d.EndTime)
	if end <= start {
		return model.Assignment{}, model.Invalid("endTime", "must be after startTime; shifts cannot run past midnight")
	}

	if d.Position == "" {
		d.Position = worker.Position
	}

	a := model.Assignment{
		WorkerID:  d.WorkerID,
		Date:      d.Date,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		Position:  d.Position,
		Kind:      d.Kind,
		Notes:     d.Notes,
	}
	if err := e.checkConflicts(s, worker, a, excludeID); err != nil {
		return model.Assignment{}, err
	}
	return a, nil
}

// checkConflicts enforces the double-booking rule for regular shifts
func (e *Engine) checkConflicts(s model.Schedule, worker model.Worker, a model.Assignment, excludeID string) error {
	if a.Kind != model.KindRegular {
		return nil
	}

	var others []model.Assignment
	for _, existing := range s.ForWorkerOn(a.WorkerID, a.Date) {
		if existing.ID != excludeID && existing.Kind == model.KindRegular {
			others = append(others, existing)
		}
	}
	if len(others) == 0 {
		return nil
	}

	if e.cfg.OneRegularShiftPerDay {
		return &model.ConflictError{
			Reason:     model.ErrDuplicatePerDay,
			WorkerName: worker.DisplayName(),
			Date:       a.Date,
			Existing:   others[0],
		}
	}

	start, end, ok := a.Minutes()
	if !ok {
		return nil
	}
	for _, existing := range others {
		if existing.Overlaps(start, end) {
			return &model.ConflictError{
				Reason:     model.ErrTimeOverlap,
				WorkerName: worker.DisplayName(),
				Date:       a.Date,
				Existing:   existing,
			}
		}
	}
	return nil
}

// Create validates and commits a new assignment
func (e *Engine) Create(d Draft) (model.Assignment, error) {
	var created model.Assignment
	err := e.store.Mutate(func(s model.Schedule) error {
		a, err := e.prepare(s, d, "")
		if err != nil {
			return err
		}
		a.ID = e.newID()
		if err := s.Insert(a); err != nil {
			return err
		}
		created = a
		return nil
	})
	if err != nil {
		e.logger.Debug("Assignment rejected",
			zap.String("worker_id", d.WorkerID),
			zap.String("date", d.Date),
			zap.Error(err))
		return model.Assignment{}, err
	}

	e.logger.Info("Assignment created",
		zap.String("id", created.ID),
		zap.String("worker_id", created.WorkerID),
		zap.String("date", created.Date),
		zap.String("kind", string(created.Kind)))
	return created, nil
}

// Move re-files an assignment from fromDate to toDate. An empty fromDate
// searches every date.
func (e *Engine) Move(id, fromDate, toDate string) (model.Assignment, error) {
	if !period.IsValidDateString(toDate) {
		return model.Assignment{}, model.Invalid("toDate", "must be a real YYYY-MM-DD date")
	}

	var moved model.Assignment
	err := e.store.Mutate(func(s model.Schedule) error {
		var (
			a  model.Assignment
			ok bool
		)
		if fromDate == "" {
			a, ok = s.Find(id)
		} else {
			a, ok = s.FindOn(fromDate, id)
		}
		if !ok {
			return model.NotFound("assignment", id)
		}

		a.Date = toDate
		if e.cfg.RevalidateOnMove {
			worker, _ := e.store.Worker(a.WorkerID)
			if err := e.checkConflicts(s, worker, a, id); err != nil {
				return err
			}
		}

		s.Remove(id)
		if err := s.Insert(a); err != nil {
			return err
		}
		moved = a
		return nil
	})
	if err != nil {
		return model.Assignment{}, err
	}

	e.logger.Info("Assignment moved",
		zap.String("id", id),
		zap.String("from", fromDate),
		zap.String("to", toDate))
	return moved, nil
}

// Remove deletes an assignment. Removing an unknown id is a no-op and returns false.
func (e *Engine) Remove(id string) bool {
	found := false
	e.store.View(func(s model.Schedule) {
		_, found = s.Find(id)
	})
	if !found {
		return false
	}

	_ = e.store.Mutate(func(s model.Schedule) error {
		s.Remove(id)
		return nil
	})
	e.logger.Info("Assignment removed", zap.String("id", id))
	return true
}

// Edit applies patch to an assignment. Changing the worker or date replaces
// the record with a new id; any other change keeps the id.
func (e *Engine) Edit(id string, patch Patch) (model.Assignment, error) {
	var edited model.Assignment
	err := e.store.Mutate(func(s model.Schedule) error {
		existing, ok := s.Find(id)
		if !ok {
			return model.NotFound("assignment", id)
		}

		merged := patch.apply(DraftOf(existing))
		a, err := e.prepare(s, merged, id)
		if err != nil {
			return err
		}

		if a.WorkerID != existing.WorkerID || a.Date != existing.Date {
			s.Remove(id)
			a.ID = e.newID()
			if err := s.Insert(a); err != nil {
				return err
			}
		} else {
			a.ID = id
			s.Replace(a)
		}
		edited = a
		return nil
	})
	if err != nil {
		return model.Assignment{}, err
	}

	e.logger.Info("Assignment edited",
		zap.String("id", id),
		zap.String("new_id", edited.ID),
		zap.String("date", edited.Date))
	return edited, nil
}

// HasShiftOnDate reports whether the worker has an assignment of any kind on date
func (e *Engine) HasShiftOnDate(workerID, date string) bool {
	has := false
	e.store.View(func(s model.Schedule) {
		has = len(s.ForWorkerOn(workerID, date)) > 0
	})
	return has
}

// Find returns a stored assignment by id
func (e *Engine) Find(id string) (model.Assignment, bool) {
	var (
		a  model.Assignment
		ok bool
	)
	e.store.View(func(s model.Schedule) {
		a, ok = s.Find(id)
	})
	return a, ok
}

// Week returns the assignments of the week containing weekKey, by date
func (e *Engine) Week(weekKey string) (map[string][]model.Assignment, error) {
	monday, err := period.WeekKeyOfDate(weekKey)
	if err != nil {
		return nil, model.Invalid("weekKey", "%s", err)
	}
	var days map[string][]model.Assignment
	e.store.View(func(s model.Schedule) {
		days = s.Week(monday)
	})
	return days, nil
}
