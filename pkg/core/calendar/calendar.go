package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/period"
)

// idNamespace scopes the name-based UUIDs given to generated entries
var idNamespace = uuid.MustParse("8f2d6c1e-4a57-4b0e-9d5e-6f1a2b3c4d5e")

// Rule describes one recurring calendar entry.
// Exactly one of RRule or EasterOffset must be set.
type Rule struct {
	Name         string `yaml:"name" validate:"required"`
	RRule        string `yaml:"rrule,omitempty"`
	EasterOffset *int   `yaml:"easterOffset,omitempty"`
}

// Validate checks that the rule has a single well-formed recurrence
func (r Rule) Validate() error {
	if r.Name == "" {
		return errors.New("rule name is required")
	}
	switch {
	case r.RRule == "" && r.EasterOffset == nil:
		return fmt.Errorf("rule %q needs an rrule or an easterOffset", r.Name)
	case r.RRule != "" && r.EasterOffset != nil:
		return fmt.Errorf("rule %q cannot have both an rrule and an easterOffset", r.Name)
	case r.RRule != "":
		if _, err := rrule.StrToRRule(r.RRule); err != nil {
			return fmt.Errorf("invalid rrule for %q: %w", r.Name, err)
		}
	}
	return nil
}

func offset(days int) *int { return &days }

// HungarianHolidays is the default public holiday set
func HungarianHolidays() []Rule {
	return []Rule{
		{Name: "New Year's Day", RRule: "FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=1"},
		{Name: "National Day", RRule: "FREQ=YEARLY;BYMONTH=3;BYMONTHDAY=15"},
		{Name: "Good Friday", EasterOffset: offset(-2)},
		{Name: "Easter Monday", EasterOffset: offset(1)},
		{Name: "Labour Day", RRule: "FREQ=YEARLY;BYMONTH=5;BYMONTHDAY=1"},
		{Name: "Whit Monday", EasterOffset: offset(50)},
		{Name: "St. Stephen's Day", RRule: "FREQ=YEARLY;BYMONTH=8;BYMONTHDAY=20"},
		{Name: "National Day", RRule: "FREQ=YEARLY;BYMONTH=10;BYMONTHDAY=23"},
		{Name: "All Saints' Day", RRule: "FREQ=YEARLY;BYMONTH=11;BYMONTHDAY=1"},
		{Name: "Christmas Eve", RRule: "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=24"},
		{Name: "Christmas Day", RRule: "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25"},
		{Name: "Second Day of Christmas", RRule: "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=26"},
	}
}

type compiledRule struct {
	name   string
	rule   *rrule.RRule
	easter *int
}

// Calendar generates the default holiday and mandatory vacation entries for a year
type Calendar struct {
	holidays  []compiledRule
	mandatory []compiledRule
}

// New compiles the given rule sets
func New(holidays, mandatoryVacations []Rule) (*Calendar, error) {
	h, err := compile(holidays)
	if err != nil {
		return nil, fmt.Errorf("failed to compile holiday rules: %w", err)
	}
	m, err := compile(mandatoryVacations)
	if err != nil {
		return nil, fmt.Errorf("failed to compile mandatory vacation rules: %w", err)
	}
	return &Calendar{holidays: h, mandatory: m}, nil
}

// Default returns the Hungarian public holidays with no mandatory vacations
func Default() *Calendar {
	cal, err := New(HungarianHolidays(), nil)
	if err != nil {
		panic(err)
	}
	return cal
}

func compile(rules []Rule) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		c := compiledRule{name: r.Name, easter: r.EasterOffset}
		if r.RRule != "" {
			// Validate already proved the rule parses
			c.rule, _ = rrule.StrToRRule(r.RRule)
		}
		out = append(out, c)
	}
	return out, nil
}

// Holidays returns the public holidays of year, sorted by date
func (c *Calendar) Holidays(year int) []model.Holiday {
	return generate(c.holidays, year, model.HolidayKindPublic)
}

// MandatoryVacations returns the company-wide mandatory vacation days of year, sorted by date
func (c *Calendar) MandatoryVacations(year int) []model.Holiday {
	return generate(c.mandatory, year, model.HolidayKindMandatoryVacation)
}

func generate(rules []compiledRule, year int, kind model.HolidayKind) []model.Holiday {
	seen := make(map[string]bool)
	var out []model.Holiday
	for _, r := range rules {
		for _, date := range r.datesIn(year) {
			// one entry per date per kind
			if seen[date] {
				continue
			}
			seen[date] = true
			out = append(out, model.Holiday{
				ID:   EntryID(kind, date),
				Date: date,
				Name: r.name,
				Kind: kind,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (r compiledRule) datesIn(year int) []string {
	if r.easter != nil {
		return []string{Easter(year).AddDate(0, 0, *r.easter).Format(period.DateLayout)}
	}

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	r.rule.DTStart(start)

	var dates []string
	for _, occurrence := range r.rule.Between(start, end, true) {
		dates = append(dates, occurrence.UTC().Format(period.DateLayout))
	}
	return dates
}

// EntryID derives a stable id from kind and date so regenerating a year is idempotent
func EntryID(kind model.HolidayKind, date string) string {
	return uuid.NewSHA1(idNamespace, []byte(string(kind)+"/"+date)).String()
}

// Easter returns Gregorian Easter Sunday of year (anonymous Gregorian algorithm), in UTC
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
