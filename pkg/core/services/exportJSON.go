package services

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// ExportVersion marks documents written by ExportJSON
const ExportVersion = "2.0"

// Export is the document ExportJSON writes and ImportJSON reads back
type Export struct {
	Version     string         `json:"version"`
	ExportDate  string         `json:"exportDate"`
	Workers     []model.Worker `json:"workers"`
	Departments []string       `json:"departments"`
	Schedules   model.Schedule `json:"schedules"`
}

// BuildExport captures the store's workers, departments and schedule
func BuildExport(src ScheduleSource, now time.Time) *Export {
	out := &Export{
		Version:     ExportVersion,
		ExportDate:  now.UTC().Format(time.RFC3339),
		Workers:     src.Workers(),
		Departments: src.Departments(),
	}
	src.View(func(s model.Schedule) {
		out.Schedules = s.Clone()
	})
	if out.Workers == nil {
		out.Workers = []model.Worker{}
	}
	return out
}

// ExportJSON writes the export document as indented JSON
func ExportJSON(src ScheduleSource, w io.Writer, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(BuildExport(src, now)); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
