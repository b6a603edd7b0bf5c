package period

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidDateString(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2024-01-02", true},
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"2024-13-01", false},
		{"2024-1-02", false},
		{"02/01/2024", false},
		{"", false},
		{"2024-01-02T00:00:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidDateString(tt.input))
		})
	}
}

func TestWeekKeyOf(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2024-01-01", "2024-01-01"}, // Monday
		{"2024-01-03", "2024-01-01"},
		{"2024-01-07", "2024-01-01"}, // Sunday belongs to the preceding Monday
		{"2024-01-08", "2024-01-08"},
		{"2023-12-31", "2023-12-25"},
		{"2024-03-31", "2024-03-25"}, // EU DST change
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			got, err := WeekKeyOfDate(tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWeekKeyOf_LateEveningStaysOnLocalDay(t *testing.T) {
	late := time.Date(2024, 1, 7, 23, 30, 0, 0, time.Local)
	assert.Equal(t, "2024-01-01", WeekKeyOf(late))
}

func TestWeekDates(t *testing.T) {
	dates, err := WeekDates("2023-12-25")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2023-12-25", "2023-12-26", "2023-12-27", "2023-12-28",
		"2023-12-29", "2023-12-30", "2023-12-31",
	}, dates)
}

func TestWeekDates_InvalidKey(t *testing.T) {
	_, err := WeekDates("not-a-date")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	days, err := DaysBetween("2024-03-25", "2024-04-01")
	require.NoError(t, err)
	assert.Equal(t, 7, days)

	days, err = DaysBetween("2024-01-08", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, -7, days)
}

func TestMonthGrid(t *testing.T) {
	grid := MonthGrid(2024, time.January)

	require.Len(t, grid, 35)
	assert.Equal(t, "2024-01-01", grid[0])
	assert.Equal(t, "2024-02-04", grid[len(grid)-1])

	grid = MonthGrid(2024, time.March)
	assert.Equal(t, "2024-02-26", grid[0])
	assert.Equal(t, "2024-03-31", grid[len(grid)-1])
	assert.Len(t, grid, 35)
}

func TestParseClock(t *testing.T) {
	minutes, err := ParseClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, 510, minutes)

	_, err = ParseClock("25:00")
	assert.Error(t, err)

	_, err = ParseClock("8am")
	assert.Error(t, err)
}

func TestDurationHours(t *testing.T) {
	hours, err := DurationHours("08:00", "16:30")
	require.NoError(t, err)
	assert.InDelta(t, 8.5, hours, 1e-9)
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("week", "2024-01-03")
	require.NoError(t, err)
	assert.Equal(t, GranularityWeek, p.Granularity)
	assert.Equal(t, "2024-01-01", p.WeekStart)

	p, err = ParsePeriod("month", "2024-02")
	require.NoError(t, err)
	assert.Equal(t, Month(2024, time.February), p)

	p, err = ParsePeriod("YEAR", "2024")
	require.NoError(t, err)
	assert.Equal(t, Year(2024), p)

	_, err = ParsePeriod("fortnight", "2024-01-01")
	assert.Error(t, err)

	_, err = ParsePeriod("month", "2024-1-1")
	assert.Error(t, err)
}

func TestPeriod_BucketsStayAligned(t *testing.T) {
	week, err := Week("2024-01-01")
	require.NoError(t, err)
	assert.Len(t, week.BucketLabels(), 7)
	assert.Equal(t, "Monday", week.BucketLabels()[0])
	assert.Equal(t, 6, week.BucketIndex("2024-01-07"))
	assert.Equal(t, -1, week.BucketIndex("2024-01-08"))

	feb := Month(2024, time.February)
	assert.Len(t, feb.BucketLabels(), 29)
	assert.Len(t, feb.Dates(), 29)
	assert.Equal(t, 28, feb.BucketIndex("2024-02-29"))
	assert.False(t, feb.Contains("2024-03-01"))

	year := Year(2024)
	assert.Len(t, year.BucketLabels(), 12)
	assert.Equal(t, "December", year.BucketLabels()[11])
	assert.Equal(t, 11, year.BucketIndex("2024-12-31"))
	assert.Len(t, year.Dates(), 366)
}

func TestPeriod_Label(t *testing.T) {
	week, err := Week("2024-01-03")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 - 2024-01-07", week.Label())
	assert.Equal(t, "January 2024", Month(2024, time.January).Label())
	assert.Equal(t, "2024", Year(2024).Label())
}

// inZone runs fn with time.Local set to the named zone
func inZone(t *testing.T, name string, fn func(t *testing.T)) {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)

	orig := time.Local
	time.Local = loc
	defer func() { time.Local = orig }()

	t.Run(name, fn)
}

// Budapest switches at 02:00/03:00; Santiago and Sao Paulo switch at midnight,
// so on their spring-forward dates local midnight does not exist.
var dstZones = []string{"Europe/Budapest", "America/Santiago", "America/Sao_Paulo"}

func TestDateMath_AcrossDaylightSaving(t *testing.T) {
	daysBetween := []struct {
		from, to string
		want     int
	}{
		{"2024-03-25", "2024-04-01", 7}, // Budapest spring forward
		{"2024-10-21", "2024-10-28", 7}, // Budapest fall back
		{"2024-04-01", "2024-04-08", 7}, // Santiago fall back at midnight
		{"2024-09-02", "2024-09-09", 7}, // Santiago spring forward at midnight
		{"2018-10-29", "2018-11-05", 7}, // Sao Paulo spring forward at midnight
		{"2024-09-07", "2024-09-08", 1},
		{"2024-04-07", "2024-04-06", -1},
		{"2024-01-01", "2025-01-01", 366},
	}
	weekKeys := []struct {
		date, want string
	}{
		{"2024-03-31", "2024-03-25"},
		{"2024-10-27", "2024-10-21"},
		{"2024-04-07", "2024-04-01"},
		{"2024-09-08", "2024-09-02"},
		{"2024-09-09", "2024-09-09"},
		{"2018-11-04", "2018-10-29"},
	}
	addDays := []struct {
		date string
		n    int
		want string
	}{
		{"2018-11-03", 1, "2018-11-04"},
		{"2024-09-07", 1, "2024-09-08"},
		{"2024-09-08", -1, "2024-09-07"},
		{"2024-10-27", 1, "2024-10-28"},
		{"2024-03-25", 7, "2024-04-01"},
	}
	grids := []struct {
		year    int
		month   time.Month
		first   string
		wantLen int
	}{
		{2024, time.March, "2024-02-26", 35},
		{2024, time.September, "2024-08-26", 42},
		{2024, time.October, "2024-09-30", 35},
		{2018, time.November, "2018-10-29", 35},
	}

	for _, zone := range dstZones {
		inZone(t, zone, func(t *testing.T) {
			for _, tt := range daysBetween {
				got, err := DaysBetween(tt.from, tt.to)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got, "DaysBetween(%s, %s)", tt.from, tt.to)
			}

			for _, tt := range weekKeys {
				got, err := WeekKeyOfDate(tt.date)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got, "WeekKeyOfDate(%s)", tt.date)
			}

			for _, tt := range addDays {
				got, err := AddDays(tt.date, tt.n)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got, "AddDays(%s, %d)", tt.date, tt.n)
			}

			for _, tt := range grids {
				grid := MonthGrid(tt.year, tt.month)
				require.Len(t, grid, tt.wantLen, "MonthGrid(%d, %s)", tt.year, tt.month)
				assert.Equal(t, tt.first, grid[0])
				for i := 1; i < len(grid); i++ {
					next, err := AddDays(grid[i-1], 1)
					require.NoError(t, err)
					assert.Equal(t, next, grid[i], "grid day %d of %s %d", i, tt.month, tt.year)
				}
			}

			dates, err := WeekDates("2024-09-02")
			require.NoError(t, err)
			assert.Equal(t, []string{
				"2024-09-02", "2024-09-03", "2024-09-04", "2024-09-05",
				"2024-09-06", "2024-09-07", "2024-09-08",
			}, dates)

			idx, err := WeekdayIndex("2024-09-08")
			require.NoError(t, err)
			assert.Equal(t, 6, idx)

			assert.Len(t, Month(2024, time.March).Dates(), 31)
			assert.Len(t, Month(2024, time.September).Dates(), 30)
		})
	}
}
