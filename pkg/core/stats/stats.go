package stats

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/period"
)

// UnassignedDepartment labels workers with no department
const UnassignedDepartment = "unassigned"

// Options tune the report
type Options struct {
	// OvertimeThresholdHours is the weekly hour count above which hours are overtime
	OvertimeThresholdHours float64
}

// DefaultOptions uses a 40 hour week
func DefaultOptions() Options {
	return Options{OvertimeThresholdHours: 40}
}

// Pay is a worker's pay for the period, rounded to cents
type Pay struct {
	Regular  decimal.Decimal `json:"regular"`
	Overtime decimal.Decimal `json:"overtime"`
	Total    decimal.Decimal `json:"total"`
}

// WorkerStats is one worker's row of the report
type WorkerStats struct {
	WorkerID        string  `json:"workerId"`
	Name            string  `json:"name"`
	Department      string  `json:"department"`
	IsActive        bool    `json:"isActive"`
	Hours           float64 `json:"hours"`
	RegularHours    float64 `json:"regularHours"`
	OvertimeHours   float64 `json:"overtimeHours"`
	VacationDays    int     `json:"vacationDays"`
	SickDays        int     `json:"sickDays"`
	HolidayDays     int     `json:"holidayDays"`
	TrainingDays    int     `json:"trainingDays"`
	TotalShifts     int     `json:"totalShifts"`
	ScheduledShifts int     `json:"scheduledShifts"`
	AttendanceRate  int     `json:"attendanceRate"`
	MinHours        int     `json:"minHours"`
	MaxHours        int     `json:"maxHours"`
	UnderMin        bool    `json:"underMin"`
	OverMax         bool    `json:"overMax"`
	Pay             Pay     `json:"pay"`
}

// DepartmentStats sums regular hours per department
type DepartmentStats struct {
	Department string  `json:"department"`
	Workers    int     `json:"workers"`
	Hours      float64 `json:"hours"`
}

// Buckets holds chart data; Labels and Hours are index aligned
type Buckets struct {
	Labels []string  `json:"labels"`
	Hours  []float64 `json:"hours"`
}

// Report is the derived view of the schedule for one period
type Report struct {
	Period       period.Period     `json:"period"`
	Label        string            `json:"label"`
	TotalWorkers int               `json:"totalWorkers"`
	TotalHours   float64           `json:"totalHours"`
	VacationDays int               `json:"vacationDays"`
	SickDays     int               `json:"sickDays"`
	TotalPay     decimal.Decimal   `json:"totalPay"`
	Workers      []WorkerStats     `json:"workers"`
	Departments  []DepartmentStats `json:"departments"`
	Buckets      Buckets           `json:"buckets"`
}

// tally accumulates minutes so nothing is rounded before output
type tally struct {
	worker          model.Worker
	minutes         int
	vacation, sick  int
	holiday, train  int
	total, regulars int
}

// Compute aggregates the schedule over p. It reads but never changes its inputs.
// Overtime is only computed for week periods; month and year report zero.
func Compute(p period.Period, workers []model.Worker, schedule model.Schedule, opts Options) Report {
	labels := p.BucketLabels()
	bucketMinutes := make([]int, len(labels))

	tallies := make(map[string]*tally, len(workers))
	order := make([]string, 0, len(workers))
	deptMinutes := make(map[string]int)
	deptWorkers := make(map[string]int)
	var deptOrder []string

	report := Report{Period: p, Label: p.Label()}
	for _, w := range workers {
		tallies[w.ID] = &tally{worker: w}
		order = append(order, w.ID)
		if w.IsActive {
			report.TotalWorkers++
		}

		dept := departmentOf(w)
		if _, seen := deptWorkers[dept]; !seen {
			deptOrder = append(deptOrder, dept)
		}
		deptWorkers[dept]++
	}

	totalMinutes := 0
	schedule.Each(func(_ string, a model.Assignment) {
		idx := p.BucketIndex(a.Date)
		if idx < 0 {
			return
		}

		t := tallies[a.WorkerID]
		switch a.Kind {
		case model.KindVacation:
			report.VacationDays++
		case model.KindSick:
			report.SickDays++
		}

		if a.Kind == model.KindRegular {
			m := minutesOf(a)
			totalMinutes += m
			bucketMinutes[idx] += m
			if t != nil {
				deptMinutes[departmentOf(t.worker)] += m
			}
		}

		if t == nil {
			return
		}
		t.total++
		switch a.Kind {
		case model.KindRegular:
			t.regulars++
			t.minutes += minutesOf(a)
		case model.KindVacation:
			t.vacation++
		case model.KindSick:
			t.sick++
		case model.KindHoliday:
			t.holiday++
		case model.KindTraining:
			t.train++
		}
	})

	thresholdMinutes := int(math.Round(opts.OvertimeThresholdHours * 60))
	report.TotalPay = decimal.Zero
	for _, id := range order {
		row := workerRow(tallies[id], p.Granularity == period.GranularityWeek, thresholdMinutes)
		report.TotalPay = report.TotalPay.Add(row.Pay.Total)
		report.Workers = append(report.Workers, row)
	}

	for _, dept := range deptOrder {
		report.Departments = append(report.Departments, DepartmentStats{
			Department: dept,
			Workers:    deptWorkers[dept],
			Hours:      hours(deptMinutes[dept]),
		})
	}
	sort.SliceStable(report.Departments, func(i, j int) bool {
		return report.Departments[i].Department < report.Departments[j].Department
	})

	report.TotalHours = hours(totalMinutes)
	report.Buckets = Buckets{Labels: labels, Hours: make([]float64, len(labels))}
	for i, m := range bucketMinutes {
		report.Buckets.Hours[i] = hours(m)
	}
	return report
}

func workerRow(t *tally, weekly bool, thresholdMinutes int) WorkerStats {
	w := t.worker
	overtime := 0
	if weekly && t.minutes > thresholdMinutes {
		overtime = t.minutes - thresholdMinutes
	}
	regular := t.minutes - overtime

	attendance := 100
	if t.total > 0 {
		attendance = int(math.Round(float64(t.regulars) / float64(t.total) * 100))
	}

	row := WorkerStats{
		WorkerID:        w.ID,
		Name:            w.DisplayName(),
		Department:      departmentOf(w),
		IsActive:        w.IsActive,
		Hours:           hours(t.minutes),
		RegularHours:    hours(regular),
		OvertimeHours:   hours(overtime),
		VacationDays:    t.vacation,
		SickDays:        t.sick,
		HolidayDays:     t.holiday,
		TrainingDays:    t.train,
		TotalShifts:     t.total,
		ScheduledShifts: t.regulars,
		AttendanceRate:  attendance,
		MinHours:        w.MinHours,
		MaxHours:        w.MaxHours,
		Pay:             payFor(w, regular, overtime),
	}
	// the min/max bounds are weekly targets
	if weekly {
		row.UnderMin = t.minutes < w.MinHours*60
		row.OverMax = w.MaxHours > 0 && t.minutes > w.MaxHours*60
	}
	return row
}

var (
	sixty   = decimal.NewFromInt(60)
	hundred = decimal.NewFromInt(100)
)

// payFor prices minutes exactly and rounds only the results
func payFor(w model.Worker, regularMinutes, overtimeMinutes int) Pay {
	rate := w.BasePay
	otRate := rate.Mul(decimal.NewFromInt(1).Add(w.OvertimePremium.Div(hundred)))

	regular := decimal.NewFromInt(int64(regularMinutes)).Mul(rate).Div(sixty)
	overtime := decimal.NewFromInt(int64(overtimeMinutes)).Mul(otRate).Div(sixty)
	return Pay{
		Regular:  regular.Round(2),
		Overtime: overtime.Round(2),
		Total:    regular.Add(overtime).Round(2),
	}
}

func minutesOf(a model.Assignment) int {
	s, e, ok := a.Minutes()
	if !ok || e <= s {
		return 0
	}
	return e - s
}

// hours converts minutes to hours rounded to one decimal place
func hours(minutes int) float64 {
	return math.Round(float64(minutes)/60*10) / 10
}

func departmentOf(w model.Worker) string {
	if w.Department == "" {
		return UnassignedDepartment
	}
	return w.Department
}
