package leave

import (
	"fmt"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// Level classifies how urgently a caller should warn before adding leave
type Level string

const (
	LevelNone            Level = "none"
	LevelRunningLow      Level = "running-low"
	LevelWillBeExhausted Level = "will-be-exhausted"
	LevelExceeded        Level = "exceeded"
)

// runningLowAt is the highest remaining balance that still warns
const runningLowAt = 2

// Source is the read access the advisor needs
type Source interface {
	Worker(id string) (model.Worker, bool)
	View(fn func(model.Schedule))
}

// Request describes a prospective leave assignment. ExcludingID names the
// assignment being edited so it is not counted twice.
type Request struct {
	WorkerID    string
	Kind        model.ShiftKind
	ExcludingID string
}

// Assessment is the advisor's answer; it never blocks anything
type Assessment struct {
	WorkerID   string          `json:"workerId"`
	WorkerName string          `json:"workerName,omitempty"`
	Kind       model.ShiftKind `json:"kind"`
	Allowed    int             `json:"allowed"`
	Used       int             `json:"used"`
	After      int             `json:"after"`
	Remaining  int             `json:"remaining"`
	Level      Level           `json:"level"`
}

// ShouldConfirm reports whether the caller should ask before proceeding
func (a Assessment) ShouldConfirm() bool {
	return a.Level != LevelNone
}

// Message renders the warning for the level, or "" when there is none
func (a Assessment) Message() string {
	kind := string(a.Kind)
	switch a.Level {
	case LevelExceeded:
		return fmt.Sprintf("%s has already used all %d %s days; this would be %d over the allowance",
			a.WorkerName, a.Allowed, kind, -a.Remaining)
	case LevelWillBeExhausted:
		return fmt.Sprintf("This uses the last of %s's %d %s days", a.WorkerName, a.Allowed, kind)
	case LevelRunningLow:
		return fmt.Sprintf("%s will have %d %s days left", a.WorkerName, a.Remaining, kind)
	}
	return ""
}

// Advisor evaluates leave requests against the whole stored schedule
type Advisor struct {
	source Source
}

func NewAdvisor(source Source) *Advisor {
	return &Advisor{source: source}
}

// Assess counts the worker's stored assignments of the requested kind across
// every stored week, adds the prospective one and classifies the balance.
// Unknown workers and kinds without an allowance yield LevelNone.
func (a *Advisor) Assess(req Request) Assessment {
	out := Assessment{WorkerID: req.WorkerID, Kind: req.Kind, Level: LevelNone}

	worker, ok := a.source.Worker(req.WorkerID)
	if !ok {
		return out
	}
	out.WorkerName = worker.DisplayName()

	allowed, ok := worker.AllowanceFor(req.Kind)
	if !ok {
		return out
	}

	used := 0
	a.source.View(func(s model.Schedule) {
		s.Each(func(_ string, asg model.Assignment) {
			if asg.WorkerID == req.WorkerID && asg.Kind == req.Kind && asg.ID != req.ExcludingID {
				used++
			}
		})
	})

	out.Allowed = allowed
	out.Used = used
	out.After = used + 1
	out.Remaining = allowed - out.After
	out.Level = Classify(out.Remaining)
	return out
}

// Classify maps a remaining balance onto a warning level
func Classify(remaining int) Level {
	switch {
	case remaining < 0:
		return LevelExceeded
	case remaining == 0:
		return LevelWillBeExhausted
	case remaining <= runningLowAt:
		return LevelRunningLow
	}
	return LevelNone
}
