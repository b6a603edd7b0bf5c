package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/jakechorley/shift-planner/pkg/core/period"
	"github.com/shopspring/decimal"
)

// SchemaVersion is the current snapshot and worker schema version
const SchemaVersion = 2

// Worker defaults applied to legacy records and auto-provisioned workers
const (
	DefaultMinHours        = 20
	DefaultMaxHours        = 40
	DefaultOvertimePremium = 50
	DefaultVacationDays    = 14
	DefaultSickDays        = 5
)

// DefaultDepartments seeds an empty store
var DefaultDepartments = []string{"sales", "kitchen", "service", "management"}

// Snapshot is the persisted state of the whole store
type Snapshot struct {
	Version            int               `json:"version"`
	Workers            []Worker          `json:"workers"`
	Schedule           Schedule          `json:"schedule"`
	Departments        []string          `json:"departments"`
	Holidays           map[int][]Holiday `json:"holidays"`
	MandatoryVacations map[int][]Holiday `json:"mandatoryVacations"`
	Currency           string            `json:"currency,omitempty"`
	SavedAt            time.Time         `json:"savedAt"`
}

// NormalizeResult counts the repairs Normalize made
type NormalizeResult struct {
	WorkersUpgraded      int
	AssignmentsRefiled   int
	DuplicateIDsDropped  int
	InvalidDatesDropped  int
	DepartmentsRecovered int
}

// Changed reports whether Normalize repaired anything
func (r NormalizeResult) Changed() bool {
	return r != NormalizeResult{}
}

// Normalize migrates a loaded snapshot to the current schema so the rest of
// the core can assume fully populated records
func (s *Snapshot) Normalize() NormalizeResult {
	var res NormalizeResult
	legacy := s.Version < SchemaVersion

	if s.Departments == nil {
		s.Departments = append([]string(nil), DefaultDepartments...)
	}
	known := make(map[string]bool, len(s.Departments))
	departments := make([]string, 0, len(s.Departments))
	for _, d := range s.Departments {
		d = NormalizeDepartment(d)
		if d == "" || known[d] {
			continue
		}
		known[d] = true
		departments = append(departments, d)
	}

	for i := range s.Workers {
		w := &s.Workers[i]
		upgraded := false
		if w.ID == "" {
			w.ID = uuid.New().String()
			upgraded = true
		}
		if legacy {
			if w.MaxHours == 0 {
				w.MaxHours = DefaultMaxHours
			}
			if w.OvertimePremium.IsZero() {
				w.OvertimePremium = decimal.NewFromInt(DefaultOvertimePremium)
			}
			if w.MinHours > w.MaxHours {
				w.MinHours = w.MaxHours
			}
			upgraded = true
		}
		dept := NormalizeDepartment(w.Department)
		if dept != w.Department {
			w.Department = dept
			upgraded = true
		}
		// workers may reference a department that was lost from the set
		if dept != "" && !known[dept] {
			known[dept] = true
			departments = append(departments, dept)
			res.DepartmentsRecovered++
		}
		if upgraded {
			res.WorkersUpgraded++
		}
	}
	s.Departments = departments

	s.Schedule, res = refile(s.Schedule, res)

	if s.Holidays == nil {
		s.Holidays = make(map[int][]Holiday)
	}
	if s.MandatoryVacations == nil {
		s.MandatoryVacations = make(map[int][]Holiday)
	}
	s.Version = SchemaVersion
	return res
}

// refile rebuilds the schedule so every assignment sits under its own week key
// and each id appears once
func refile(in Schedule, res NormalizeResult) (Schedule, NormalizeResult) {
	out := NewSchedule()
	seen := make(map[string]bool)
	in.Each(func(weekKey string, a Assignment) {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if seen[a.ID] {
			res.DuplicateIDsDropped++
			return
		}
		if a.Kind == "" {
			a.Kind = KindRegular
		}
		if err := out.Insert(a); err != nil {
			res.InvalidDatesDropped++
			return
		}
		seen[a.ID] = true
		if wk, _ := period.WeekKeyOfDate(a.Date); wk != weekKey {
			res.AssignmentsRefiled++
		}
	})
	return out, res
}

// Clone deep-copies the snapshot
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Workers = make([]Worker, len(s.Workers))
	for i, w := range s.Workers {
		w.WorkTypes = append([]string(nil), w.WorkTypes...)
		out.Workers[i] = w
	}
	out.Schedule = s.Schedule.Clone()
	out.Departments = append([]string(nil), s.Departments...)
	out.Holidays = cloneHolidays(s.Holidays)
	out.MandatoryVacations = cloneHolidays(s.MandatoryVacations)
	return &out
}

func cloneHolidays(in map[int][]Holiday) map[int][]Holiday {
	out := make(map[int][]Holiday, len(in))
	for year, list := range in {
		out[year] = append([]Holiday(nil), list...)
	}
	return out
}
