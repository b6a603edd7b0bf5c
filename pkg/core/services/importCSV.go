package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/shifts"
)

// CSV column identifiers
const (
	colEmployee = "employee"
	colDate     = "date"
	colStart    = "start"
	colEnd      = "end"
	colPosition = "position"
	colKind     = "kind"
)

// Defaults for workers created from CSV rows
const (
	ProvisionedDepartment = "service"
	ProvisionedPosition   = "Staff"
)

// ProvisionedBasePay is the hourly rate given to workers created from CSV rows
var ProvisionedBasePay = decimal.RequireFromString("15.00")

// headerAliases maps a squashed header name onto its column
var headerAliases = map[string]string{
	"employee":  colEmployee,
	"worker":    colEmployee,
	"name":      colEmployee,
	"date":      colDate,
	"starttime": colStart,
	"start":     colStart,
	"endtime":   colEnd,
	"end":       colEnd,
	"position":  colPosition,
	"type":      colKind,
	"kind":      colKind,
}

// ImportCSV reads rows of Employee, Date, Start Time, End Time, Position, Type.
// Employees are matched by name; unknown ones are created with defaults.
// Rows missing any of the first four values are rejected.
func ImportCSV(ctx context.Context, directory WorkerDirectory, creator ShiftCreator, logger *zap.Logger, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("failed to read csv: %w", err)
		}
		if blankRecord(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		source := fmt.Sprintf("line %d", line)
		get := func(col string) string {
			i, ok := columns[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		name, date, start, end := get(colEmployee), get(colDate), get(colStart), get(colEnd)
		if name == "" || date == "" || start == "" || end == "" {
			result.reject(source, "", date, model.Invalid("row", "employee, date, start time and end time are required"))
			continue
		}
		position := get(colPosition)

		worker, ok := directory.FindWorkerByName(name)
		if !ok {
			worker, err = directory.AddWorker(provisionWorker(name, position, directory.Departments()))
			if err != nil {
				result.reject(source, "", date, err)
				continue
			}
			result.WorkersAdded++
			logger.Debug("Provisioned worker from csv",
				zap.String("worker_id", worker.ID),
				zap.String("name", name))
		}

		kind := strings.ToLower(get(colKind))
		if kind == "" {
			kind = string(model.KindRegular)
		}

		_, err = creator.Create(shifts.Draft{
			WorkerID:  worker.ID,
			Date:      date,
			StartTime: start,
			EndTime:   end,
			Position:  position,
			Kind:      model.ShiftKind(kind),
		})
		if err != nil {
			result.reject(source, worker.ID, date, err)
			continue
		}
		result.ShiftsAdded++
	}

	logger.Info("CSV import complete",
		zap.Int("workers_added", result.WorkersAdded),
		zap.Int("shifts_added", result.ShiftsAdded),
		zap.Int("rejected", len(result.Rejected)))

	return result, nil
}

// mapColumns resolves header names, ignoring case, spaces, underscores and dashes
func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int)
	for i, h := range header {
		col, ok := headerAliases[squash(h)]
		if !ok {
			continue
		}
		if _, dup := columns[col]; !dup {
			columns[col] = i
		}
	}

	var missing []string
	for _, required := range []string{colEmployee, colDate, colStart, colEnd} {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, model.Invalid("header", "missing columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func squash(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// provisionWorker builds the record for an employee first seen in a CSV row
func provisionWorker(name, position string, departments []string) model.Worker {
	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	if position == "" {
		position = ProvisionedPosition
	}

	department := ""
	for _, d := range departments {
		if d == ProvisionedDepartment {
			department = d
			break
		}
	}

	return model.Worker{
		FirstName:           first,
		LastName:            strings.TrimSpace(last),
		Department:          department,
		Position:            position,
		WorkTypes:           []string{position},
		MinHours:            model.DefaultMinHours,
		MaxHours:            model.DefaultMaxHours,
		BasePay:             ProvisionedBasePay,
		OvertimePremium:     decimal.NewFromInt(model.DefaultOvertimePremium),
		VacationDaysPerYear: model.DefaultVacationDays,
		SickDaysPerYear:     model.DefaultSickDays,
		IsActive:            true,
	}
}
