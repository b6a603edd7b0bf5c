package model

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrDuplicatePerDay     = errors.New("worker already has a regular shift on this date")
	ErrTimeOverlap         = errors.New("shift overlaps an existing regular shift")
	ErrDepartmentInUse     = errors.New("department is still assigned to workers")
	ErrDuplicateDepartment = errors.New("department already exists")
	ErrDuplicateHoliday    = errors.New("an entry already exists on this date")
	ErrNotFound            = errors.New("not found")
	ErrClipboardEmpty      = errors.New("no week has been copied")
	ErrEmptyWeek           = errors.New("week has no assignments to copy")
)

// ValidationError names the offending field of a rejected draft
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports a double booking. Reason is ErrDuplicatePerDay or ErrTimeOverlap.
type ConflictError struct {
	Reason     error
	WorkerName string
	Date       string
	Existing   Assignment
}

func (e *ConflictError) Error() string {
	if errors.Is(e.Reason, ErrTimeOverlap) {
		return fmt.Sprintf("%s is already working %s-%s on %s",
			e.WorkerName, e.Existing.StartTime, e.Existing.EndTime, e.Date)
	}
	return fmt.Sprintf("%s already has a shift on %s", e.WorkerName, e.Date)
}

func (e *ConflictError) Unwrap() error { return e.Reason }

// NotFound wraps ErrNotFound with the kind and id of the missing entity
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}
