package handlers

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/leave"
	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/period"
	"github.com/jakechorley/shift-planner/pkg/core/services"
	"github.com/jakechorley/shift-planner/pkg/core/shifts"
	"github.com/jakechorley/shift-planner/pkg/core/stats"
	"github.com/jakechorley/shift-planner/pkg/core/store"
	"github.com/jakechorley/shift-planner/pkg/db"
)

// Handler serves the planner over JSON. The core is single threaded, so every
// request runs under mu.
type Handler struct {
	mu sync.Mutex

	store   *store.Store
	engine  *shifts.Engine
	advisor *leave.Advisor
	logger  *zap.Logger
	opts    stats.Options
	now     func() time.Time

	syncMu   sync.Mutex
	lastSync *db.SyncStatus
}

// Deps are the collaborators a Handler serves
type Deps struct {
	Store        *store.Store
	Engine       *shifts.Engine
	Advisor      *leave.Advisor
	Logger       *zap.Logger
	StatsOptions stats.Options
	Now          func() time.Time
}

func New(deps Deps) *Handler {
	h := &Handler{
		store:   deps.Store,
		engine:  deps.Engine,
		advisor: deps.Advisor,
		logger:  deps.Logger,
		opts:    deps.StatsOptions,
		now:     deps.Now,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.advisor == nil {
		h.advisor = leave.NewAdvisor(h.store)
	}
	if h.opts.OvertimeThresholdHours == 0 {
		h.opts = stats.DefaultOptions()
	}
	return h
}

// Router builds a gin engine with request logging and every route under /api
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.logger))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Shift Planner API", "version": services.ExportVersion})
	})
	h.Register(r.Group("/api"))
	return r
}

// Register mounts the planner routes on rg
func (h *Handler) Register(rg gin.IRouter) {
	rg.GET("/workers", h.locked(h.ListWorkers))
	rg.POST("/workers", h.locked(h.AddWorker))
	rg.PUT("/workers/:id", h.locked(h.UpdateWorker))
	rg.DELETE("/workers/:id", h.locked(h.RemoveWorker))

	rg.GET("/departments", h.locked(h.ListDepartments))
	rg.POST("/departments", h.locked(h.AddDepartment))
	rg.DELETE("/departments/:name", h.locked(h.RemoveDepartment))

	rg.GET("/holidays", h.locked(h.ListHolidays))
	rg.POST("/holidays", h.locked(h.AddHoliday))
	rg.DELETE("/holidays/:id", h.locked(h.RemoveHoliday))

	rg.POST("/shifts", h.locked(h.CreateShift))
	rg.PATCH("/shifts/:id", h.locked(h.EditShift))
	rg.POST("/shifts/:id/move", h.locked(h.MoveShift))
	rg.DELETE("/shifts/:id", h.locked(h.RemoveShift))

	rg.GET("/weeks/:week", h.locked(h.ViewWeek))
	rg.GET("/weeks/:week/workbook", h.locked(h.WeekWorkbook))
	rg.POST("/weeks/:week/copy", h.locked(h.CopyWeek))
	rg.POST("/weeks/:week/paste", h.locked(h.PasteWeek))
	rg.DELETE("/weeks/:week", h.locked(h.ClearWeek))
	rg.DELETE("/months/:month", h.locked(h.ClearMonth))

	rg.GET("/stats", h.locked(h.Stats))
	rg.POST("/leave/assess", h.locked(h.AssessLeave))

	rg.GET("/export", h.locked(h.Export))
	rg.POST("/import", h.locked(h.Import))
	rg.POST("/import/csv", h.locked(h.ImportCSV))

	rg.GET("/sync", h.SyncState)
}

func (h *Handler) locked(fn gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.mu.Lock()
		defer h.mu.Unlock()
		fn(c)
	}
}

// RecordSync is a db.Syncer status callback; the latest status is served on /api/sync
func (h *Handler) RecordSync(status db.SyncStatus) {
	h.syncMu.Lock()
	defer h.syncMu.Unlock()
	h.lastSync = &status
}

func (h *Handler) SyncState(c *gin.Context) {
	h.syncMu.Lock()
	status := h.lastSync
	h.syncMu.Unlock()

	if status == nil {
		c.JSON(http.StatusOK, gin.H{"state": "idle"})
		return
	}
	body := gin.H{"state": status.State, "at": status.At}
	if status.Err != nil {
		body["error"] = status.Err.Error()
	}
	c.JSON(http.StatusOK, body)
}

// Workers

func (h *Handler) ListWorkers(c *gin.Context) {
	if c.Query("active") == "true" {
		c.JSON(http.StatusOK, h.store.ActiveWorkers())
		return
	}
	c.JSON(http.StatusOK, h.store.Workers())
}

func (h *Handler) AddWorker(c *gin.Context) {
	var w model.Worker
	if err := c.ShouldBindJSON(&w); err != nil {
		badRequest(c, err)
		return
	}
	added, err := h.store.AddWorker(w)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, added)
}

func (h *Handler) UpdateWorker(c *gin.Context) {
	var w model.Worker
	if err := c.ShouldBindJSON(&w); err != nil {
		badRequest(c, err)
		return
	}
	w.ID = c.Param("id")
	updated, err := h.store.UpdateWorker(w)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) RemoveWorker(c *gin.Context) {
	removed, err := h.store.RemoveWorker(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignmentsRemoved": removed})
}

// Departments

type departmentRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) ListDepartments(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Departments())
}

func (h *Handler) AddDepartment(c *gin.Context) {
	var req departmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	name, err := h.store.AddDepartment(req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": name})
}

func (h *Handler) RemoveDepartment(c *gin.Context) {
	if err := h.store.RemoveDepartment(c.Param("name")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Holidays

func (h *Handler) ListHolidays(c *gin.Context) {
	year := h.now().Year()
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 9999 {
			h.fail(c, model.Invalid("year", "must be a four digit year"))
			return
		}
		year = parsed
	}
	c.JSON(http.StatusOK, gin.H{
		"year":               year,
		"holidays":           h.store.Holidays(year),
		"mandatoryVacations": h.store.MandatoryVacations(year),
	})
}

func (h *Handler) AddHoliday(c *gin.Context) {
	var entry model.Holiday
	if err := c.ShouldBindJSON(&entry); err != nil {
		badRequest(c, err)
		return
	}
	added, err := h.store.AddHoliday(entry)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, added)
}

func (h *Handler) RemoveHoliday(c *gin.Context) {
	if err := h.store.RemoveHoliday(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Shifts

type shiftResponse struct {
	model.Assignment
	Leave *leave.Assessment `json:"leave,omitempty"`
}

// withLeave attaches the balance warning for leave kinds. The shift is already
// stored; the warning is advisory.
func (h *Handler) withLeave(a model.Assignment) shiftResponse {
	out := shiftResponse{Assignment: a}
	if a.Kind == model.KindVacation || a.Kind == model.KindSick {
		// the stored shift itself is the prospective one
		assessment := h.advisor.Assess(leave.Request{WorkerID: a.WorkerID, Kind: a.Kind, ExcludingID: a.ID})
		out.Leave = &assessment
	}
	return out
}

func (h *Handler) CreateShift(c *gin.Context) {
	var draft shifts.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}
	created, err := h.engine.Create(draft)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.withLeave(created))
}

func (h *Handler) EditShift(c *gin.Context) {
	var patch shifts.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	edited, err := h.engine.Edit(c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.withLeave(edited))
}

type moveRequest struct {
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate" binding:"required"`
}

func (h *Handler) MoveShift(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	moved, err := h.engine.Move(c.Param("id"), req.FromDate, req.ToDate)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, moved)
}

// RemoveShift is idempotent; removed reports whether anything was deleted
func (h *Handler) RemoveShift(c *gin.Context) {
	removed := h.engine.Remove(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// Weeks

type dayView struct {
	Date        string             `json:"date"`
	Holidays    []model.Holiday    `json:"holidays"`
	Assignments []model.Assignment `json:"assignments"`
}

func (h *Handler) ViewWeek(c *gin.Context) {
	monday, err := period.WeekKeyOfDate(c.Param("week"))
	if err != nil {
		h.fail(c, model.Invalid("week", "%s", err))
		return
	}
	days, err := h.engine.Week(monday)
	if err != nil {
		h.fail(c, err)
		return
	}
	dates, _ := period.WeekDates(monday)

	out := make([]dayView, 0, len(dates))
	for _, date := range dates {
		assignments := days[date]
		if assignments == nil {
			assignments = []model.Assignment{}
		}
		holidays := h.store.HolidayOn(date)
		if holidays == nil {
			holidays = []model.Holiday{}
		}
		out = append(out, dayView{Date: date, Holidays: holidays, Assignments: assignments})
	}
	c.JSON(http.StatusOK, gin.H{"weekKey": monday, "days": out})
}

func (h *Handler) WeekWorkbook(c *gin.Context) {
	roster, err := services.BuildWeekRoster(h.store, c.Param("week"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+services.SheetName(roster.Title)+`.xlsx"`)
	if err := services.ExportWorkbook(roster, c.Writer); err != nil {
		h.logger.Error("Failed to write workbook", zap.Error(err))
	}
}

func (h *Handler) CopyWeek(c *gin.Context) {
	copied, err := h.engine.CopyWeek(c.Param("week"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"copied": copied})
}

type pasteRequest struct {
	Mode shifts.PasteMode `json:"mode"`
}

type skippedView struct {
	WorkerID string `json:"workerId"`
	Date     string `json:"date"`
	Reason   string `json:"reason"`
}

func (h *Handler) PasteWeek(c *gin.Context) {
	req := pasteRequest{Mode: shifts.PasteReplace}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	result, err := h.engine.PasteWeek(c.Param("week"), req.Mode)
	if err != nil {
		h.fail(c, err)
		return
	}

	skipped := make([]skippedView, 0, len(result.Skipped))
	for _, s := range result.Skipped {
		skipped = append(skipped, skippedView{WorkerID: s.Source.WorkerID, Date: s.Date, Reason: s.Reason})
	}
	added := result.Added
	if added == nil {
		added = []model.Assignment{}
	}
	c.JSON(http.StatusOK, gin.H{
		"weekKey": result.TargetWeek,
		"mode":    result.Mode,
		"cleared": result.Cleared,
		"added":   added,
		"skipped": skipped,
	})
}

func (h *Handler) ClearWeek(c *gin.Context) {
	cleared, err := h.engine.ClearWeek(c.Param("week"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": cleared})
}

// ClearMonth takes the month as YYYY-MM
func (h *Handler) ClearMonth(c *gin.Context) {
	t, err := time.Parse("2006-01", c.Param("month"))
	if err != nil {
		h.fail(c, model.Invalid("month", "expected YYYY-MM"))
		return
	}
	cleared, err := h.engine.ClearMonth(t.Year(), t.Month())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": cleared})
}

// Reports

// Stats takes ?granularity=week|month|year&anchor=...; the anchor defaults to today
func (h *Handler) Stats(c *gin.Context) {
	granularity := c.DefaultQuery("granularity", string(period.GranularityWeek))
	anchor := c.Query("anchor")
	if anchor == "" {
		anchor = defaultAnchor(period.Granularity(granularity), h.now())
	}
	p, err := period.ParsePeriod(granularity, anchor)
	if err != nil {
		h.fail(c, model.Invalid("period", "%s", err))
		return
	}

	var report stats.Report
	workers := h.store.Workers()
	h.store.View(func(s model.Schedule) {
		report = stats.Compute(p, workers, s, h.opts)
	})
	c.JSON(http.StatusOK, gin.H{"currency": h.store.Currency(), "report": report})
}

func defaultAnchor(g period.Granularity, now time.Time) string {
	switch g {
	case period.GranularityMonth:
		return now.Format("2006-01")
	case period.GranularityYear:
		return now.Format("2006")
	}
	return period.FormatDate(now)
}

type leaveRequest struct {
	WorkerID    string          `json:"workerId" binding:"required"`
	Kind        model.ShiftKind `json:"kind" binding:"required"`
	ExcludingID string          `json:"excludingId"`
}

// AssessLeave answers before a leave shift is added; it never refuses
func (h *Handler) AssessLeave(c *gin.Context) {
	var req leaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a := h.advisor.Assess(leave.Request{WorkerID: req.WorkerID, Kind: req.Kind, ExcludingID: req.ExcludingID})
	c.JSON(http.StatusOK, gin.H{
		"assessment":    a,
		"shouldConfirm": a.ShouldConfirm(),
		"message":       a.Message(),
	})
}

// Import / export

func (h *Handler) Export(c *gin.Context) {
	now := h.now()
	c.Header("Content-Disposition", `attachment; filename="shift-planner-`+period.FormatDate(now)+`.json"`)
	c.Header("Content-Type", "application/json; charset=utf-8")
	if err := services.ExportJSON(h.store, c.Writer, now); err != nil {
		h.logger.Error("Failed to write export", zap.Error(err))
	}
}

func (h *Handler) Import(c *gin.Context) {
	result, err := services.ImportJSON(c.Request.Context(), h.store, h.engine, h.logger, c.Request.Body)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) ImportCSV(c *gin.Context) {
	result, err := services.ImportCSV(c.Request.Context(), h.store, h.engine, h.logger, c.Request.Body)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
