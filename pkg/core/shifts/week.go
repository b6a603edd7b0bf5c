package shifts

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/period"
)

// PasteMode selects how a paste treats the target week's existing assignments
type PasteMode string

const (
	// PasteReplace empties the target week first
	PasteReplace PasteMode = "replace"
	// PasteMerge keeps the target week and skips value-equal entries
	PasteMerge PasteMode = "merge"
)

func (m PasteMode) IsValid() bool {
	return m == PasteReplace || m == PasteMerge
}

// Clipboard holds one copied week. Days is keyed by weekday offset, 0 = Monday.
// Ids are kept as copied; fresh ids are assigned on paste.
type Clipboard struct {
	SourceWeek string
	Days       map[int][]model.Assignment
	CopiedAt   time.Time
}

// Len counts the copied assignments
func (c Clipboard) Len() int {
	n := 0
	for _, list := range c.Days {
		n += len(list)
	}
	return n
}

func (c Clipboard) clone() Clipboard {
	out := c
	out.Days = make(map[int][]model.Assignment, len(c.Days))
	for offset, list := range c.Days {
		out.Days[offset] = append([]model.Assignment(nil), list...)
	}
	return out
}

// Skip reasons reported by PasteWeek
const (
	SkipDuplicate     = "duplicate"
	SkipWorkerRemoved = "worker removed"
	SkipConflict      = "conflict"
)

// SkippedEntry is a clipboard entry PasteWeek did not insert
type SkippedEntry struct {
	Source model.Assignment
	Date   string
	Reason string
}

// PasteResult summarises a paste
type PasteResult struct {
	TargetWeek string
	Mode       PasteMode
	Cleared    int
	Added      []model.Assignment
	Skipped    []SkippedEntry
}

// CopyWeek snapshots the week containing weekKey into the single-slot clipboard,
// overwriting any previous copy. Copying an empty week leaves the clipboard unchanged.
func (e *Engine) CopyWeek(weekKey string) (int, error) {
	monday, err := period.WeekKeyOfDate(weekKey)
	if err != nil {
		return 0, model.Invalid("weekKey", "%s", err)
	}

	var days map[string][]model.Assignment
	e.store.View(func(s model.Schedule) {
		days = s.Week(monday)
	})

	clip := Clipboard{SourceWeek: monday, Days: make(map[int][]model.Assignment), CopiedAt: time.Now()}
	for date, list := range days {
		offset, err := period.DaysBetween(monday, date)
		if err != nil || offset < 0 || offset > 6 {
			continue
		}
		clip.Days[offset] = append(clip.Days[offset], list...)
	}
	if clip.Len() == 0 {
		return 0, fmt.Errorf("%s: %w", monday, model.ErrEmptyWeek)
	}

	e.clipboard = &clip
	e.logger.Info("Week copied", zap.String("week", monday), zap.Int("assignments", clip.Len()))
	return clip.Len(), nil
}

// Clipboard returns a copy of the current clipboard
func (e *Engine) Clipboard() (Clipboard, bool) {
	if e.clipboard == nil {
		return Clipboard{}, false
	}
	return e.clipboard.clone(), true
}

// PasteWeek writes the clipboard into the week containing weekKey, mapping
// each source weekday onto the same weekday of the target week
func (e *Engine) PasteWeek(weekKey string, mode PasteMode) (PasteResult, error) {
	if e.clipboard == nil {
		return PasteResult{}, model.ErrClipboardEmpty
	}
	if !mode.IsValid() {
		return PasteResult{}, model.Invalid("mode", "must be %q or %q", PasteReplace, PasteMerge)
	}
	monday, err := period.WeekKeyOfDate(weekKey)
	if err != nil {
		return PasteResult{}, model.Invalid("weekKey", "%s", err)
	}
	targetDates, _ := period.WeekDates(monday)

	result := PasteResult{TargetWeek: monday, Mode: mode}
	err = e.store.Mutate(func(s model.Schedule) error {
		if mode == PasteReplace {
			result.Cleared = s.ClearWeek(monday)
		}

		for offset := 0; offset < 7; offset++ {
			date := targetDates[offset]
			for _, src := range e.clipboard.Days[offset] {
				if reason := e.pasteSkipReason(s, src, date, mode); reason != "" {
					result.Skipped = append(result.Skipped, SkippedEntry{Source: src, Date: date, Reason: reason})
					continue
				}

				a := src
				a.ID = e.newID()
				a.Date = date
				if err := s.Insert(a); err != nil {
					return err
				}
				result.Added = append(result.Added, a)
			}
		}
		return nil
	})
	if err != nil {
		return PasteResult{}, err
	}

	e.logger.Info("Week pasted",
		zap.String("source", e.clipboard.SourceWeek),
		zap.String("target", monday),
		zap.String("mode", string(mode)),
		zap.Int("cleared", result.Cleared),
		zap.Int("added", len(result.Added)),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

func (e *Engine) pasteSkipReason(s model.Schedule, src model.Assignment, date string, mode PasteMode) string {
	worker, ok := e.store.Worker(src.WorkerID)
	if !ok {
		return SkipWorkerRemoved
	}

	existing := s.ForWorkerOn(src.WorkerID, date)
	if mode == PasteMerge {
		for _, a := range existing {
			if a.SameSlot(src) {
				return SkipDuplicate
			}
		}
	}

	candidate := src
	candidate.Date = date
	if err := e.checkConflicts(s, worker, candidate, ""); err != nil {
		return SkipConflict
	}
	return ""
}

// ClearWeek removes every assignment in the week containing weekKey
func (e *Engine) ClearWeek(weekKey string) (int, error) {
	monday, err := period.WeekKeyOfDate(weekKey)
	if err != nil {
		return 0, model.Invalid("weekKey", "%s", err)
	}

	removed := 0
	_ = e.store.Mutate(func(s model.Schedule) error {
		removed = s.ClearWeek(monday)
		return nil
	})

	e.logger.Info("Week cleared", zap.String("week", monday), zap.Int("removed", removed))
	return removed, nil
}

// ClearMonth removes every assignment dated inside the month, across all weeks.
// Weeks that straddle the month boundary keep their other dates.
func (e *Engine) ClearMonth(year int, month time.Month) (int, error) {
	if month < time.January || month > time.December {
		return 0, model.Invalid("month", "must be between 1 and 12")
	}

	removed := 0
	_ = e.store.Mutate(func(s model.Schedule) error {
		removed = s.ClearDates(func(date string) bool {
			t, err := period.ParseDate(date)
			return err == nil && t.Year() == year && t.Month() == month
		})
		return nil
	})

	e.logger.Info("Month cleared",
		zap.Int("year", year),
		zap.String("month", month.String()),
		zap.Int("removed", removed))
	return removed, nil
}
