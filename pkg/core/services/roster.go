package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/period"
)

// RosterDay is one column of a roster
type RosterDay struct {
	Date     string   `json:"date"`
	Label    string   `json:"label"`
	Holidays []string `json:"holidays,omitempty"`
}

// RosterRow is one worker's line of a roster
type RosterRow struct {
	WorkerID   string   `json:"workerId"`
	WorkerName string   `json:"workerName"`
	Department string   `json:"department,omitempty"`
	Cells      []string `json:"cells"`
	Hours      float64  `json:"hours"`
}

// Roster is a worker by day grid of cell texts, ready to render or publish
type Roster struct {
	Title string      `json:"title"`
	Days  []RosterDay `json:"days"`
	Rows  []RosterRow `json:"rows"`
}

// kindLabels is the cell text for non-regular assignments
var kindLabels = map[model.ShiftKind]string{
	model.KindVacation: "Vacation",
	model.KindSick:     "Sick",
	model.KindHoliday:  "Holiday",
	model.KindTraining: "Training",
}

// WeekTitle names a week roster, e.g. "Week of Mon Jan 15 2024"
func WeekTitle(weekKey string) (string, error) {
	t, err := period.ParseDate(weekKey)
	if err != nil {
		return "", err
	}
	return "Week of " + t.Format("Mon Jan 02 2006"), nil
}

// BuildWeekRoster lays out the week starting weekKey. Any date is accepted
// and normalized to its Monday.
func BuildWeekRoster(src RosterSource, weekKey string) (*Roster, error) {
	monday, err := period.WeekKeyOfDate(weekKey)
	if err != nil {
		return nil, model.Invalid("week", "must be a real YYYY-MM-DD date")
	}
	dates, err := period.WeekDates(monday)
	if err != nil {
		return nil, err
	}
	title, err := WeekTitle(monday)
	if err != nil {
		return nil, err
	}
	return buildRoster(src, title, dates, "Mon 01-02"), nil
}

// BuildMonthRoster lays out every day of the month
func BuildMonthRoster(src RosterSource, year int, month time.Month) (*Roster, error) {
	if month < time.January || month > time.December {
		return nil, model.Invalid("month", "must be between 1 and 12")
	}
	p := period.Month(year, month)
	return buildRoster(src, p.Label(), p.Dates(), "02 Mon"), nil
}

func buildRoster(src RosterSource, title string, dates []string, labelLayout string) *Roster {
	roster := &Roster{Title: title, Days: make([]RosterDay, len(dates))}
	column := make(map[string]int, len(dates))
	for i, date := range dates {
		column[date] = i
		day := RosterDay{Date: date, Label: date}
		if t, err := period.ParseDate(date); err == nil {
			day.Label = t.Format(labelLayout)
		}
		for _, h := range src.HolidayOn(date) {
			day.Holidays = append(day.Holidays, h.Name)
		}
		roster.Days[i] = day
	}

	// collect each worker's assignments inside the range
	byWorker := make(map[string][]model.Assignment)
	src.View(func(s model.Schedule) {
		for _, date := range dates {
			for _, a := range s.On(date) {
				byWorker[a.WorkerID] = append(byWorker[a.WorkerID], a)
			}
		}
	})

	// active workers always get a row; inactive ones only when they have entries
	for _, w := range src.Workers() {
		assignments := byWorker[w.ID]
		if !w.IsActive && len(assignments) == 0 {
			continue
		}
		row := RosterRow{
			WorkerID:   w.ID,
			WorkerName: w.DisplayName(),
			Department: w.Department,
			Cells:      make([]string, len(dates)),
		}

		sort.SliceStable(assignments, func(i, j int) bool {
			if assignments[i].Date != assignments[j].Date {
				return assignments[i].Date < assignments[j].Date
			}
			return assignments[i].StartTime < assignments[j].StartTime
		})

		minutes := 0
		for _, a := range assignments {
			i := column[a.Date]
			if row.Cells[i] != "" {
				row.Cells[i] += ", "
			}
			row.Cells[i] += cellText(a)
			if a.Kind == model.KindRegular {
				if start, end, ok := a.Minutes(); ok {
					minutes += end - start
				}
			}
		}
		row.Hours = math.Round(float64(minutes)/60*10) / 10
		roster.Rows = append(roster.Rows, row)
	}

	sort.SliceStable(roster.Rows, func(i, j int) bool {
		return strings.ToLower(roster.Rows[i].WorkerName) < strings.ToLower(roster.Rows[j].WorkerName)
	})
	return roster
}

func cellText(a model.Assignment) string {
	if label, ok := kindLabels[a.Kind]; ok {
		return label
	}
	return fmt.Sprintf("%s-%s", a.StartTime, a.EndTime)
}

// HasHolidays reports whether any day carries a holiday annotation
func (r *Roster) HasHolidays() bool {
	for _, d := range r.Days {
		if len(d.Holidays) > 0 {
			return true
		}
	}
	return false
}

// Table renders the roster as rows of strings: a header row, an optional
// holiday row, then one row per worker
func (r *Roster) Table() [][]string {
	header := []string{"Worker", "Department"}
	for _, d := range r.Days {
		header = append(header, d.Label)
	}
	header = append(header, "Hours")
	table := [][]string{header}

	if r.HasHolidays() {
		holidays := []string{"Holidays", ""}
		for _, d := range r.Days {
			holidays = append(holidays, strings.Join(d.Holidays, ", "))
		}
		holidays = append(holidays, "")
		table = append(table, holidays)
	}

	for _, row := range r.Rows {
		line := []string{row.WorkerName, row.Department}
		line = append(line, row.Cells...)
		line = append(line, fmt.Sprintf("%.1f", row.Hours))
		table = append(table, line)
	}
	return table
}
