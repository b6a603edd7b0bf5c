package model

import (
	"sort"

	"github.com/jakechorley/shift-planner/pkg/core/period"
)

// Schedule is the assignment index: week key -> date -> assignments in insertion order.
// An assignment is always filed under the week key computed from its own date.
type Schedule map[string]map[string][]Assignment

// NewSchedule returns an empty schedule
func NewSchedule() Schedule {
	return make(Schedule)
}

// Insert files a under the week key of a.Date, appending to that date's list
func (s Schedule) Insert(a Assignment) error {
	weekKey, err := period.WeekKeyOfDate(a.Date)
	if err != nil {
		return err
	}

	days, ok := s[weekKey]
	if !ok {
		days = make(map[string][]Assignment)
		s[weekKey] = days
	}
	days[a.Date] = append(days[a.Date], a)
	return nil
}

// Find scans the whole schedule for id
func (s Schedule) Find(id string) (Assignment, bool) {
	for _, days := range s {
		for _, list := range days {
			for _, a := range list {
				if a.ID == id {
					return a, true
				}
			}
		}
	}
	return Assignment{}, false
}

// FindOn looks for id on a single date, scanning every week that holds that date
func (s Schedule) FindOn(date, id string) (Assignment, bool) {
	for _, days := range s {
		for _, a := range days[date] {
			if a.ID == id {
				return a, true
			}
		}
	}
	return Assignment{}, false
}

// Remove deletes the first assignment with the given id and prunes empty containers
func (s Schedule) Remove(id string) (Assignment, bool) {
	for weekKey, days := range s {
		for date, list := range days {
			for i, a := range list {
				if a.ID != id {
					continue
				}
				days[date] = append(list[:i:i], list[i+1:]...)
				s.prune(weekKey, date)
				return a, true
			}
		}
	}
	return Assignment{}, false
}

// Replace overwrites the stored assignment with the same id, keeping its position.
// The date must not change; callers re-file date changes via Remove and Insert.
func (s Schedule) Replace(a Assignment) bool {
	for _, days := range s {
		list := days[a.Date]
		for i := range list {
			if list[i].ID == a.ID {
				list[i] = a
				return true
			}
		}
	}
	return false
}

// On returns a copy of every assignment on date
func (s Schedule) On(date string) []Assignment {
	var out []Assignment
	for _, days := range s {
		out = append(out, days[date]...)
	}
	return out
}

// ForWorkerOn returns the worker's assignments on date
func (s Schedule) ForWorkerOn(workerID, date string) []Assignment {
	var out []Assignment
	for _, a := range s.On(date) {
		if a.WorkerID == workerID {
			out = append(out, a)
		}
	}
	return out
}

// RemoveWorker deletes every assignment referencing workerID and returns how many were removed
func (s Schedule) RemoveWorker(workerID string) int {
	return s.removeWhere(func(a Assignment) bool { return a.WorkerID == workerID })
}

// ClearWeek removes the whole week partition and returns how many assignments it held
func (s Schedule) ClearWeek(weekKey string) int {
	removed := 0
	for _, list := range s[weekKey] {
		removed += len(list)
	}
	delete(s, weekKey)
	return removed
}

// ClearDates removes every date entry, in any week, for which match returns true
func (s Schedule) ClearDates(match func(date string) bool) int {
	removed := 0
	for weekKey, days := range s {
		for date, list := range days {
			if !match(date) {
				continue
			}
			removed += len(list)
			delete(days, date)
		}
		if len(days) == 0 {
			delete(s, weekKey)
		}
	}
	return removed
}

// Week returns a deep copy of the date map stored under weekKey
func (s Schedule) Week(weekKey string) map[string][]Assignment {
	days := s[weekKey]
	out := make(map[string][]Assignment, len(days))
	for date, list := range days {
		out[date] = append([]Assignment(nil), list...)
	}
	return out
}

// Each calls fn for every assignment in week, date and insertion order
func (s Schedule) Each(fn func(weekKey string, a Assignment)) {
	for _, weekKey := range sortedKeys(s) {
		days := s[weekKey]
		dates := make([]string, 0, len(days))
		for date := range days {
			dates = append(dates, date)
		}
		sort.Strings(dates)
		for _, date := range dates {
			for _, a := range days[date] {
				fn(weekKey, a)
			}
		}
	}
}

// All returns every assignment in week, date and insertion order
func (s Schedule) All() []Assignment {
	var out []Assignment
	s.Each(func(_ string, a Assignment) { out = append(out, a) })
	return out
}

// Len counts every assignment
func (s Schedule) Len() int {
	n := 0
	for _, days := range s {
		for _, list := range days {
			n += len(list)
		}
	}
	return n
}

// Clone returns a deep copy
func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	for weekKey := range s {
		out[weekKey] = s.Week(weekKey)
	}
	return out
}

func (s Schedule) removeWhere(match func(Assignment) bool) int {
	removed := 0
	for weekKey, days := range s {
		for date, list := range days {
			kept := list[:0:0]
			for _, a := range list {
				if match(a) {
					removed++
					continue
				}
				kept = append(kept, a)
			}
			days[date] = kept
			s.prune(weekKey, date)
		}
	}
	return removed
}

func (s Schedule) prune(weekKey, date string) {
	days, ok := s[weekKey]
	if !ok {
		return
	}
	if len(days[date]) == 0 {
		delete(days, date)
	}
	if len(days) == 0 {
		delete(s, weekKey)
	}
}

func sortedKeys(s Schedule) []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
