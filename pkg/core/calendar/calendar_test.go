package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

func TestEaster(t *testing.T) {
	tests := map[int]string{
		2019: "2019-04-21",
		2024: "2024-03-31",
		2025: "2025-04-20",
		2026: "2026-04-05",
	}
	for year, want := range tests {
		assert.Equal(t, want, Easter(year).Format("2006-01-02"), "year %d", year)
	}
}

func TestDefault_Holidays2024(t *testing.T) {
	holidays := Default().Holidays(2024)

	dates := make([]string, len(holidays))
	for i, h := range holidays {
		dates[i] = h.Date
		assert.Equal(t, model.HolidayKindPublic, h.Kind)
		assert.NotEmpty(t, h.Name)
	}

	assert.Equal(t, []string{
		"2024-01-01", "2024-03-15", "2024-03-29", "2024-04-01", "2024-05-01", "2024-05-20",
		"2024-08-20", "2024-10-23", "2024-11-01", "2024-12-24", "2024-12-25", "2024-12-26",
	}, dates)
}

func TestDefault_NoMandatoryVacations(t *testing.T) {
	assert.Empty(t, Default().MandatoryVacations(2024))
}

func TestGenerate_IsDeterministic(t *testing.T) {
	cal := Default()
	first := cal.Holidays(2025)
	second := cal.Holidays(2025)
	assert.Equal(t, first, second)
	assert.Equal(t, EntryID(model.HolidayKindPublic, "2025-01-01"), first[0].ID)
}

func TestEntryID_DiffersByKind(t *testing.T) {
	assert.NotEqual(t,
		EntryID(model.HolidayKindPublic, "2024-12-24"),
		EntryID(model.HolidayKindMandatoryVacation, "2024-12-24"))
}

func TestNew_MandatoryVacationRules(t *testing.T) {
	cal, err := New(nil, []Rule{
		{Name: "Summer shutdown", RRule: "FREQ=YEARLY;BYMONTH=8;BYMONTHDAY=1,2,3"},
		{Name: "Bridge day", EasterOffset: offset(-1)},
	})
	require.NoError(t, err)

	entries := cal.MandatoryVacations(2024)
	require.Len(t, entries, 4)
	assert.Equal(t, "2024-03-30", entries[0].Date)
	assert.Equal(t, "2024-08-01", entries[1].Date)
	assert.Equal(t, "2024-08-03", entries[3].Date)
	for _, e := range entries {
		assert.Equal(t, model.HolidayKindMandatoryVacation, e.Kind)
	}
	assert.Empty(t, cal.Holidays(2024))
}

func TestNew_DuplicateDatesCollapse(t *testing.T) {
	cal, err := New([]Rule{
		{Name: "A", RRule: "FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=1"},
		{Name: "B", RRule: "FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=1"},
	}, nil)
	require.NoError(t, err)

	holidays := cal.Holidays(2024)
	require.Len(t, holidays, 1)
	assert.Equal(t, "A", holidays[0].Name)
}

func TestRule_Validate(t *testing.T) {
	assert.Error(t, Rule{RRule: "FREQ=YEARLY"}.Validate())
	assert.Error(t, Rule{Name: "none"}.Validate())
	assert.Error(t, Rule{Name: "both", RRule: "FREQ=YEARLY", EasterOffset: offset(1)}.Validate())

	err := Rule{Name: "bad", RRule: "INVALID_RRULE_SYNTAX"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")

	assert.NoError(t, Rule{Name: "ok", RRule: "FREQ=YEARLY;BYMONTH=5;BYMONTHDAY=1"}.Validate())
	assert.NoError(t, Rule{Name: "ok", EasterOffset: offset(0)}.Validate())
}

func TestNew_RejectsInvalidRule(t *testing.T) {
	_, err := New([]Rule{{Name: "bad", RRule: "INVALID_RRULE_SYNTAX"}}, nil)
	assert.Error(t, err)
}

func TestDatesIn_IgnoresLocalZone(t *testing.T) {
	orig := time.Local
	time.Local = time.FixedZone("UTC+14", 14*3600)
	defer func() { time.Local = orig }()

	holidays := Default().Holidays(2024)
	assert.Equal(t, "2024-01-01", holidays[0].Date)
}
