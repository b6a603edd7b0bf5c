package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/period"
)

// Holidays returns the public holidays of year, seeding the defaults on first access
func (s *Store) Holidays(year int) []model.Holiday {
	return cloneEntries(s.yearOf(model.HolidayKindPublic, year))
}

// MandatoryVacations returns the mandatory vacation days of year, seeding the defaults on first access
func (s *Store) MandatoryVacations(year int) []model.Holiday {
	return cloneEntries(s.yearOf(model.HolidayKindMandatoryVacation, year))
}

// HolidayOn returns the entries of either kind that fall on date
func (s *Store) HolidayOn(date string) []model.Holiday {
	t, err := period.ParseDate(date)
	if err != nil {
		return nil
	}

	var out []model.Holiday
	for _, kind := range []model.HolidayKind{model.HolidayKindPublic, model.HolidayKindMandatoryVacation} {
		for _, h := range s.yearOf(kind, t.Year()) {
			if h.Date == date {
				out = append(out, h)
			}
		}
	}
	return out
}

// AddHoliday stores a custom entry. Only one entry per date is allowed within a kind.
func (s *Store) AddHoliday(h model.Holiday) (model.Holiday, error) {
	h.Name = strings.TrimSpace(h.Name)
	if h.Kind == "" {
		h.Kind = model.HolidayKindPublic
	}
	if !h.Kind.IsValid() {
		return model.Holiday{}, model.Invalid("kind", "must be %q or %q", model.HolidayKindPublic, model.HolidayKindMandatoryVacation)
	}
	if h.Name == "" {
		return model.Holiday{}, model.Invalid("name", "is required")
	}
	t, err := period.ParseDate(h.Date)
	if err != nil {
		return model.Holiday{}, model.Invalid("date", "%s", err)
	}

	year := t.Year()
	entries := s.yearOf(h.Kind, year)
	for _, existing := range entries {
		if existing.Date == h.Date {
			return model.Holiday{}, fmt.Errorf("%s %q on %s: %w", h.Kind, existing.Name, h.Date, model.ErrDuplicateHoliday)
		}
	}
	if h.ID == "" {
		h.ID = uuid.New().String()
	}

	entries = append(entries, h)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	s.entries(h.Kind)[year] = entries

	s.logger.Info("Calendar entry added",
		zap.String("kind", string(h.Kind)),
		zap.String("date", h.Date),
		zap.String("name", h.Name))
	s.persist()
	return h, nil
}

// RemoveHoliday deletes an entry of either kind by id
func (s *Store) RemoveHoliday(id string) error {
	for _, kind := range []model.HolidayKind{model.HolidayKindPublic, model.HolidayKindMandatoryVacation} {
		byYear := s.entries(kind)
		for year, entries := range byYear {
			for i, h := range entries {
				if h.ID != id {
					continue
				}
				// an emptied year stays materialized so it is not reseeded
				byYear[year] = append(entries[:i:i], entries[i+1:]...)
				s.logger.Info("Calendar entry removed", zap.String("id", id), zap.String("date", h.Date))
				s.persist()
				return nil
			}
		}
	}
	return model.NotFound("calendar entry", id)
}

func (s *Store) entries(kind model.HolidayKind) map[int][]model.Holiday {
	if kind == model.HolidayKindMandatoryVacation {
		return s.mandatory
	}
	return s.holidays
}

// yearOf materializes the year from the calendar if it has never been seen.
// Seeding does not persist: reads stay read-only and the seeded year is saved
// with the next mutation's snapshot.
func (s *Store) yearOf(kind model.HolidayKind, year int) []model.Holiday {
	byYear := s.entries(kind)
	if entries, ok := byYear[year]; ok {
		return entries
	}

	var seeded []model.Holiday
	if kind == model.HolidayKindMandatoryVacation {
		seeded = s.calendar.MandatoryVacations(year)
	} else {
		seeded = s.calendar.Holidays(year)
	}
	if seeded == nil {
		seeded = []model.Holiday{}
	}
	byYear[year] = seeded

	s.logger.Debug("Seeded calendar year",
		zap.String("kind", string(kind)),
		zap.Int("year", year),
		zap.Int("entries", len(seeded)))
	return seeded
}

func cloneEntries(in []model.Holiday) []model.Holiday {
	return append([]model.Holiday{}, in...)
}
