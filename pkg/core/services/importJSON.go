package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/shifts"
)

// Rejection records one import entry that was not applied
type Rejection struct {
	Source   string `json:"source"`
	WorkerID string `json:"workerId,omitempty"`
	Date     string `json:"date,omitempty"`
	Reason   string `json:"reason"`
}

// ImportResult summarizes an import
type ImportResult struct {
	WorkersAdded   int         `json:"workersAdded"`
	WorkersSkipped int         `json:"workersSkipped"`
	ShiftsAdded    int         `json:"shiftsAdded"`
	Rejected       []Rejection `json:"rejected,omitempty"`
}

func (r *ImportResult) reject(source, workerID, date string, err error) {
	r.Rejected = append(r.Rejected, Rejection{Source: source, WorkerID: workerID, Date: date, Reason: err.Error()})
}

// feedWorker accepts both current worker records and legacy ones with numeric ids
type feedWorker struct {
	model.Worker
	ID       json.RawMessage `json:"id"`
	IsActive *bool           `json:"isActive"`
}

// feedShift accepts both current assignments and legacy ones using employeeId and type
type feedShift struct {
	ID         json.RawMessage `json:"id"`
	WorkerID   json.RawMessage `json:"workerId"`
	EmployeeID json.RawMessage `json:"employeeId"`
	Date       string          `json:"date"`
	StartTime  string          `json:"startTime"`
	EndTime    string          `json:"endTime"`
	Position   string          `json:"position"`
	Kind       string          `json:"kind"`
	Type       string          `json:"type"`
	Notes      string          `json:"notes"`
}

type feed struct {
	Employees   []feedWorker                      `json:"employees"`
	Workers     []feedWorker                      `json:"workers"`
	Departments []string                          `json:"departments"`
	Schedules   map[string]map[string][]feedShift `json:"schedules"`
}

// ImportJSON merges an exported document into the store. Workers whose email
// already exists are skipped and their shifts are remapped onto the stored
// worker; new workers get fresh ids. Shifts go through the engine, so each is
// validated and filed under the week of its own date.
func ImportJSON(ctx context.Context, directory WorkerDirectory, creator ShiftCreator, logger *zap.Logger, r io.Reader) (*ImportResult, error) {
	var doc feed
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode import document: %w", err)
	}

	logger.Debug("Importing JSON document",
		zap.Int("employees", len(doc.Employees)+len(doc.Workers)),
		zap.Int("weeks", len(doc.Schedules)))

	result := &ImportResult{}

	// Step 1: departments referenced by the feed
	for _, name := range doc.Departments {
		ensureDepartment(directory, name)
	}

	// Step 2: merge workers, building feed id -> store id
	idMap := make(map[string]string)
	for i, fw := range append(doc.Employees, doc.Workers...) {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		feedID := rawID(fw.ID)
		source := fmt.Sprintf("worker %d", i+1)

		if existing, ok := matchWorker(directory, fw.Worker.Email, feedID, fw.Worker); ok {
			result.WorkersSkipped++
			if feedID != "" {
				idMap[feedID] = existing.ID
			}
			logger.Debug("Skipping existing worker",
				zap.String("feed_id", feedID),
				zap.String("worker_id", existing.ID))
			continue
		}

		w := upgradeFeedWorker(fw)
		ensureDepartment(directory, w.Department)
		added, err := directory.AddWorker(w)
		if err != nil {
			result.reject(source, feedID, "", err)
			logger.Warn("Rejected imported worker", zap.String("feed_id", feedID), zap.Error(err))
			continue
		}
		result.WorkersAdded++
		if feedID != "" {
			idMap[feedID] = added.ID
		}
	}

	// Step 3: shifts, in week and date order
	for _, week := range sortedMapKeys(doc.Schedules) {
		days := doc.Schedules[week]
		for _, date := range sortedMapKeys(days) {
			for i, fs := range days[date] {
				if err := ctx.Err(); err != nil {
					return result, err
				}

				draft, feedWorkerID := fs.draft(date)
				source := fmt.Sprintf("%s #%d", date, i+1)

				workerID, ok := idMap[feedWorkerID]
				if !ok {
					if _, known := directory.Worker(feedWorkerID); !known {
						result.reject(source, feedWorkerID, draft.Date, model.Invalid("workerId", "unknown worker %q", feedWorkerID))
						continue
					}
					workerID = feedWorkerID
				}
				draft.WorkerID = workerID

				if _, err := creator.Create(draft); err != nil {
					result.reject(source, workerID, draft.Date, err)
					continue
				}
				result.ShiftsAdded++
			}
		}
	}

	logger.Info("JSON import complete",
		zap.Int("workers_added", result.WorkersAdded),
		zap.Int("workers_skipped", result.WorkersSkipped),
		zap.Int("shifts_added", result.ShiftsAdded),
		zap.Int("rejected", len(result.Rejected)))

	return result, nil
}

func (fs feedShift) draft(dateKey string) (shifts.Draft, string) {
	workerID := rawID(fs.WorkerID)
	if workerID == "" {
		workerID = rawID(fs.EmployeeID)
	}
	date := fs.Date
	if date == "" {
		date = dateKey
	}
	kind := fs.Kind
	if kind == "" {
		kind = fs.Type
	}
	return shifts.Draft{
		Date:      date,
		StartTime: fs.StartTime,
		EndTime:   fs.EndTime,
		Position:  fs.Position,
		Kind:      model.ShiftKind(strings.ToLower(strings.TrimSpace(kind))),
		Notes:     fs.Notes,
	}, workerID
}

// matchWorker finds the stored worker an imported record refers to: by email,
// or by id when the record is this store's own export of the same person
func matchWorker(directory WorkerDirectory, email, feedID string, fw model.Worker) (model.Worker, bool) {
	if existing, ok := directory.FindWorkerByEmail(email); ok {
		return existing, true
	}
	if feedID == "" {
		return model.Worker{}, false
	}
	existing, ok := directory.Worker(feedID)
	if ok && strings.EqualFold(existing.FullName(), fw.FullName()) {
		return existing, true
	}
	return model.Worker{}, false
}

// upgradeFeedWorker fills the fields legacy records lack
func upgradeFeedWorker(fw feedWorker) model.Worker {
	w := fw.Worker
	w.ID = ""
	w.IsActive = fw.IsActive == nil || *fw.IsActive
	if w.MaxHours == 0 {
		w.MaxHours = model.DefaultMaxHours
	}
	if w.MinHours > w.MaxHours {
		w.MinHours = w.MaxHours
	}
	if w.OvertimePremium.IsZero() {
		w.OvertimePremium = decimal.NewFromInt(model.DefaultOvertimePremium)
	}
	return w
}

// ensureDepartment adds name when the store lacks it
func ensureDepartment(directory WorkerDirectory, name string) {
	name = model.NormalizeDepartment(name)
	if name == "" {
		return
	}
	for _, d := range directory.Departments() {
		if d == name {
			return
		}
	}
	// a failure here resurfaces as a worker validation error
	_, _ = directory.AddDepartment(name)
}

// rawID reads an id that may be a JSON string or number
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}

func sortedMapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
