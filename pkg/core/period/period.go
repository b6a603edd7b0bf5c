package period

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the storage format for every calendar date
	DateLayout = "2006-01-02"
	// ClockLayout is the 24-hour time-of-day format used for shift boundaries
	ClockLayout = "15:04"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsValidDateString reports whether s is YYYY-MM-DD and names a real calendar date
func IsValidDateString(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.ParseInLocation(DateLayout, s, time.Local)
	return err == nil
}

// ParseDate parses a YYYY-MM-DD string into a local time anchored at noon.
// Noon keeps day arithmetic stable across daylight-saving transitions.
func ParseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Noon(t), nil
}

// Noon returns the local calendar day of t at 12:00
func Noon(t time.Time) time.Time {
	local := t.In(time.Local)
	return time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, time.Local)
}

// FormatDate formats t as a local YYYY-MM-DD string
func FormatDate(t time.Time) string {
	return t.In(time.Local).Format(DateLayout)
}

// WeekKeyOf returns the Monday of the local-calendar week containing t
func WeekKeyOf(t time.Time) string {
	day := Noon(t)
	offset := (int(day.Weekday()) + 6) % 7 // 0=Monday, 6=Sunday
	return FormatDate(day.AddDate(0, 0, -offset))
}

// WeekKeyOfDate returns the week key for a YYYY-MM-DD date string
func WeekKeyOfDate(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return WeekKeyOf(t), nil
}

// WeekdayIndex returns 0 for Monday through 6 for Sunday
func WeekdayIndex(date string) (int, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return (int(t.Weekday()) + 6) % 7, nil
}

// WeekDates returns the seven consecutive dates starting at weekKey
func WeekDates(weekKey string) ([]string, error) {
	start, err := ParseDate(weekKey)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 7)
	for i := 0; i < 7; i++ {
		dates[i] = FormatDate(start.AddDate(0, 0, i))
	}
	return dates, nil
}

// AddDays shifts a date string by n calendar days
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// DaysBetween returns the number of calendar days from one date to another.
// Both ends are anchored at noon, so a 23 or 25 hour day still counts as one.
func DaysBetween(from, to string) (int, error) {
	a, err := ParseDate(from)
	if err != nil {
		return 0, err
	}
	b, err := ParseDate(to)
	if err != nil {
		return 0, err
	}
	return int(math.Round(b.Sub(a).Hours() / 24)), nil
}

// DaysIn returns the number of days in the given month
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 12, 0, 0, 0, time.Local).Day()
}

// MonthGrid returns every date of the Monday-start weeks covering the month,
// from the Monday on or before the 1st to the Sunday on or after the last day
func MonthGrid(year int, month time.Month) []string {
	first := time.Date(year, month, 1, 12, 0, 0, 0, time.Local)
	last := time.Date(year, month, DaysIn(year, month), 12, 0, 0, 0, time.Local)

	gridStart := WeekKeyOf(first)
	lastWeek := WeekKeyOf(last)
	gridEnd, _ := AddDays(lastWeek, 6)

	span, _ := DaysBetween(gridStart, gridEnd)
	start, _ := ParseDate(gridStart)

	dates := make([]string, 0, span+1)
	for i := 0; i <= span; i++ {
		dates = append(dates, FormatDate(start.AddDate(0, 0, i)))
	}
	return dates
}

// ParseClock converts an HH:MM string into minutes since midnight
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// DurationHours returns the length of [start, end) in hours
func DurationHours(start, end string) (float64, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	return float64(e-s) / 60, nil
}

// Granularity selects the aggregation window of a reporting period
type Granularity string

const (
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// IsValid reports whether g is a known granularity
func (g Granularity) IsValid() bool {
	return g == GranularityWeek || g == GranularityMonth || g == GranularityYear
}

var (
	weekdayLabels = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
)

// Period is a reporting window: a Monday-start week, a calendar month or a calendar year.
// Only the fields relevant to Granularity are set.
type Period struct {
	Granularity Granularity `json:"granularity"`
	WeekStart   string      `json:"weekStart,omitempty"`
	Year        int         `json:"year,omitempty"`
	Month       time.Month  `json:"month,omitempty"`
}

// Week returns the week period containing weekKey (normalized to its Monday)
func Week(weekKey string) (Period, error) {
	monday, err := WeekKeyOfDate(weekKey)
	if err != nil {
		return Period{}, err
	}
	return Period{Granularity: GranularityWeek, WeekStart: monday}, nil
}

// Month returns the calendar month period
func Month(year int, month time.Month) Period {
	return Period{Granularity: GranularityMonth, Year: year, Month: month}
}

// Year returns the calendar year period
func Year(year int) Period {
	return Period{Granularity: GranularityYear, Year: year}
}

// ParsePeriod builds a period from a granularity and an anchor:
// week takes any date in the week, month takes YYYY-MM, year takes YYYY
func ParsePeriod(granularity, anchor string) (Period, error) {
	switch Granularity(strings.ToLower(granularity)) {
	case GranularityWeek:
		return Week(anchor)
	case GranularityMonth:
		t, err := time.ParseInLocation("2006-01", anchor, time.Local)
		if err != nil {
			return Period{}, fmt.Errorf("invalid month %q: expected YYYY-MM", anchor)
		}
		return Month(t.Year(), t.Month()), nil
	case GranularityYear:
		year, err := strconv.Atoi(anchor)
		if err != nil || year < 1 || year > 9999 {
			return Period{}, fmt.Errorf("invalid year %q", anchor)
		}
		return Year(year), nil
	default:
		return Period{}, fmt.Errorf("unknown granularity %q: expected week, month or year", granularity)
	}
}

// Contains reports whether date falls inside the period
func (p Period) Contains(date string) bool {
	return p.BucketIndex(date) >= 0
}

// Dates lists every date in the period in order
func (p Period) Dates() []string {
	switch p.Granularity {
	case GranularityWeek:
		dates, _ := WeekDates(p.WeekStart)
		return dates
	case GranularityMonth:
		n := DaysIn(p.Year, p.Month)
		dates := make([]string, n)
		for i := 0; i < n; i++ {
			dates[i] = FormatDate(time.Date(p.Year, p.Month, i+1, 12, 0, 0, 0, time.Local))
		}
		return dates
	case GranularityYear:
		var dates []string
		for d := time.Date(p.Year, time.January, 1, 12, 0, 0, 0, time.Local); d.Year() == p.Year; d = d.AddDate(0, 0, 1) {
			dates = append(dates, FormatDate(d))
		}
		return dates
	}
	return nil
}

// BucketLabels returns the chart bucket names: weekday names for a week,
// day-of-month numbers for a month, month names for a year
func (p Period) BucketLabels() []string {
	switch p.Granularity {
	case GranularityWeek:
		labels := make([]string, len(weekdayLabels))
		copy(labels, weekdayLabels)
		return labels
	case GranularityMonth:
		n := DaysIn(p.Year, p.Month)
		labels := make([]string, n)
		for i := range labels {
			labels[i] = strconv.Itoa(i + 1)
		}
		return labels
	case GranularityYear:
		labels := make([]string, 12)
		for i := range labels {
			labels[i] = time.Month(i + 1).String()
		}
		return labels
	}
	return nil
}

// BucketIndex returns the index into BucketLabels for date, or -1 when outside the period
func (p Period) BucketIndex(date string) int {
	t, err := ParseDate(date)
	if err != nil {
		return -1
	}
	switch p.Granularity {
	case GranularityWeek:
		days, err := DaysBetween(p.WeekStart, date)
		if err != nil || days < 0 || days > 6 {
			return -1
		}
		return days
	case GranularityMonth:
		if t.Year() != p.Year || t.Month() != p.Month {
			return -1
		}
		return t.Day() - 1
	case GranularityYear:
		if t.Year() != p.Year {
			return -1
		}
		return int(t.Month()) - 1
	}
	return -1
}

// Label is a human-readable name for the period
func (p Period) Label() string {
	switch p.Granularity {
	case GranularityWeek:
		end, _ := AddDays(p.WeekStart, 6)
		return fmt.Sprintf("%s - %s", p.WeekStart, end)
	case GranularityMonth:
		return fmt.Sprintf("%s %d", p.Month, p.Year)
	case GranularityYear:
		return strconv.Itoa(p.Year)
	}
	return ""
}
