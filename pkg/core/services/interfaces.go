package services

import (
	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/shifts"
)

// WorkerDirectory is the part of the store that imports read and extend
type WorkerDirectory interface {
	Workers() []model.Worker
	Worker(id string) (model.Worker, bool)
	FindWorkerByEmail(email string) (model.Worker, bool)
	FindWorkerByName(name string) (model.Worker, bool)
	AddWorker(w model.Worker) (model.Worker, error)
	Departments() []string
	AddDepartment(name string) (string, error)
}

// ShiftCreator commits validated assignments
type ShiftCreator interface {
	Create(d shifts.Draft) (model.Assignment, error)
}

// ScheduleSource gives read access to workers, departments and the schedule
type ScheduleSource interface {
	Workers() []model.Worker
	Departments() []string
	View(fn func(model.Schedule))
}

// RosterSource is a ScheduleSource that also knows the holiday calendar
type RosterSource interface {
	ScheduleSource
	HolidayOn(date string) []model.Holiday
}
