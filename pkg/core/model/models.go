package model

import (
	"strings"

	"github.com/jakechorley/shift-planner/pkg/core/period"
	"github.com/shopspring/decimal"
)

// ShiftKind classifies an assignment
type ShiftKind string

const (
	KindRegular  ShiftKind = "regular"
	KindVacation ShiftKind = "vacation"
	KindSick     ShiftKind = "sick"
	KindHoliday  ShiftKind = "holiday"
	KindTraining ShiftKind = "training"
)

// ShiftKinds lists every valid kind in display order
var ShiftKinds = []ShiftKind{KindRegular, KindVacation, KindSick, KindHoliday, KindTraining}

func (k ShiftKind) IsValid() bool {
	for _, known := range ShiftKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsLeave reports whether the kind is one of the non-worked leave kinds
func (k ShiftKind) IsLeave() bool {
	return k.IsValid() && k != KindRegular
}

// DefaultWorkerName is shown when a worker has neither a nickname nor a name
const DefaultWorkerName = "Worker"

// Worker is an employee who can be assigned to shifts.
// Money fields are decimals; OvertimePremium is a percentage on top of BasePay.
type Worker struct {
	ID                  string          `json:"id" yaml:"id"`
	Name                string          `json:"name,omitempty" yaml:"name,omitempty"`
	Nickname            string          `json:"nickname,omitempty" yaml:"nickname,omitempty"`
	FirstName           string          `json:"firstName,omitempty" yaml:"firstName,omitempty"`
	LastName            string          `json:"lastName,omitempty" yaml:"lastName,omitempty"`
	Email               string          `json:"email,omitempty" yaml:"email,omitempty" validate:"omitempty,email"`
	Phone               string          `json:"phone,omitempty" yaml:"phone,omitempty"`
	Department          string          `json:"department,omitempty" yaml:"department,omitempty"`
	Position            string          `json:"position,omitempty" yaml:"position,omitempty"`
	WorkTypes           []string        `json:"workTypes,omitempty" yaml:"workTypes,omitempty"`
	MinHours            int             `json:"minHours" yaml:"minHours" validate:"gte=0"`
	MaxHours            int             `json:"maxHours" yaml:"maxHours" validate:"gte=0,gtefield=MinHours"`
	BasePay             decimal.Decimal `json:"basePay" yaml:"basePay"`
	OvertimePremium     decimal.Decimal `json:"overtimePremium" yaml:"overtimePremium"`
	VacationDaysPerYear int             `json:"vacationDaysPerYear" yaml:"vacationDaysPerYear" validate:"gte=0"`
	SickDaysPerYear     int             `json:"sickDaysPerYear" yaml:"sickDaysPerYear" validate:"gte=0"`
	IsActive            bool            `json:"isActive" yaml:"isActive"`
	DefaultStartTime    string          `json:"defaultStartTime,omitempty" yaml:"defaultStartTime,omitempty" validate:"omitempty,datetime=15:04"`
	DefaultEndTime      string          `json:"defaultEndTime,omitempty" yaml:"defaultEndTime,omitempty" validate:"omitempty,datetime=15:04"`
	Avatar              string          `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Notes               string          `json:"notes,omitempty" yaml:"notes,omitempty"`
	Color               string          `json:"color,omitempty" yaml:"color,omitempty"`
}

// FullName returns Name, falling back to "FirstName LastName"
func (w Worker) FullName() string {
	if name := strings.TrimSpace(w.Name); name != "" {
		return name
	}
	return strings.TrimSpace(strings.Join(nonEmpty(w.FirstName, w.LastName), " "))
}

// DisplayName returns the nickname if set, else the full name, else a placeholder
func (w Worker) DisplayName() string {
	if nick := strings.TrimSpace(w.Nickname); nick != "" {
		return nick
	}
	if full := w.FullName(); full != "" {
		return full
	}
	return DefaultWorkerName
}

// AllowanceFor returns the yearly day allowance for a leave kind and whether the kind has one
func (w Worker) AllowanceFor(kind ShiftKind) (int, bool) {
	switch kind {
	case KindVacation:
		return w.VacationDaysPerYear, true
	case KindSick:
		return w.SickDaysPerYear, true
	}
	return 0, false
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeDepartment lowercases and trims a department name
func NormalizeDepartment(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// HolidayKind distinguishes public holidays from company-wide mandatory vacation
type HolidayKind string

const (
	HolidayKindPublic            HolidayKind = "holiday"
	HolidayKindMandatoryVacation HolidayKind = "mandatory-vacation"
)

func (k HolidayKind) IsValid() bool {
	return k == HolidayKindPublic || k == HolidayKindMandatoryVacation
}

// Holiday is an informational calendar entry; it never blocks assignments
type Holiday struct {
	ID   string      `json:"id"`
	Date string      `json:"date"`
	Name string      `json:"name"`
	Kind HolidayKind `json:"kind"`
}

// Assignment is one worker booked on one date
type Assignment struct {
	ID        string    `json:"id"`
	WorkerID  string    `json:"workerId"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Position  string    `json:"position,omitempty"`
	Kind      ShiftKind `json:"kind"`
	Notes     string    `json:"notes,omitempty"`
}

// Minutes returns the start and end as minutes since midnight; ok is false when either is malformed
func (a Assignment) Minutes() (start, end int, ok bool) {
	s, err := period.ParseClock(a.StartTime)
	if err != nil {
		return 0, 0, false
	}
	e, err := period.ParseClock(a.EndTime)
	if err != nil {
		return 0, 0, false
	}
	return s, e, true
}

// Hours returns the shift length, or 0 when the times are malformed or inverted
func (a Assignment) Hours() float64 {
	s, e, ok := a.Minutes()
	if !ok || e <= s {
		return 0
	}
	return float64(e-s) / 60
}

// Overlaps reports whether [startMinutes, endMinutes) intersects the assignment's own interval.
// Unparseable times never overlap.
func (a Assignment) Overlaps(startMinutes, endMinutes int) bool {
	s, e, ok := a.Minutes()
	if !ok {
		return false
	}
	return startMinutes < e && endMinutes > s
}

// SameSlot reports whether two assignments book the same worker, times and kind
func (a Assignment) SameSlot(b Assignment) bool {
	return a.WorkerID == b.WorkerID &&
		a.StartTime == b.StartTime &&
		a.EndTime == b.EndTime &&
		a.Kind == b.Kind
}
