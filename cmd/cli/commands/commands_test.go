package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/services"
	"github.com/jakechorley/shift-planner/pkg/db"
)

// newTestApp builds an app over an in-memory database. The debounce is long
// enough that nothing is written until a flush.
func newTestApp(t *testing.T) (*AppContext, *db.MemoryStore) {
	t.Helper()
	debounce := int(time.Hour / time.Millisecond)
	cfg := &config.Config{
		OwnerID:  "test",
		Currency: "Ft",
		Storage: config.StorageConfig{
			Backend:        config.BackendMemory,
			DebounceMillis: &debounce,
		},
		Scheduling: config.SchedulingConfig{OvertimeThresholdHours: 40},
	}
	mem := db.NewMemoryStore()
	app, err := NewAppContext(context.Background(), "test", cfg, mem, zap.NewNop())
	require.NoError(t, err)
	return app, mem
}

// run executes args against a fresh command tree bound to app
func run(t *testing.T, app *AppContext, stdin string, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "rota", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(All(app)...)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, app *AppContext, args ...string) string {
	t.Helper()
	out, err := run(t, app, "", args...)
	require.NoError(t, err, out)
	return out
}

func seedAnna(t *testing.T, app *AppContext) model.Worker {
	t.Helper()
	mustRun(t, app, "addDepartment", "kitchen")
	mustRun(t, app, "addWorker", "Anna Kovacs", "--department", "kitchen", "--email", "anna@example.com")
	w, ok := app.Store.FindWorkerByEmail("anna@example.com")
	require.True(t, ok)
	return w
}

func TestAddAndListWorkers(t *testing.T) {
	app, _ := newTestApp(t)
	anna := seedAnna(t, app)

	assert.Equal(t, "kitchen", anna.Department)
	assert.True(t, anna.IsActive)
	assert.Equal(t, model.DefaultMinHours, anna.MinHours)

	out := mustRun(t, app, "listWorkers")
	assert.Contains(t, out, "Found 1 workers")
	assert.Contains(t, out, "Anna Kovacs")
	assert.Contains(t, out, "kitchen")
}

func TestAddWorkerRejectsUnknownDepartment(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := run(t, app, "", "addWorker", "Bela", "--department", "bar")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Empty(t, app.Store.Workers())
}

func TestAddWorkerRejectsBadPay(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := run(t, app, "", "addWorker", "Bela", "--base-pay", "lots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base-pay")
}

func TestResolveWorker(t *testing.T) {
	app, _ := newTestApp(t)
	anna := seedAnna(t, app)

	tests := []struct {
		name string
		ref  string
	}{
		{"by id", anna.ID},
		{"by email", "anna@example.com"},
		{"by name", "Anna Kovacs"},
		{"surrounding spaces", "  Anna Kovacs "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := resolveWorker(app, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, anna.ID, w.ID)
		})
	}

	_, err := resolveWorker(app, "nobody")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRemoveWorkerAsksForConfirmation(t *testing.T) {
	app, _ := newTestApp(t)
	seedAnna(t, app)
	mustRun(t, app, "addShift", "Anna Kovacs", "2024-01-08", "08:00", "16:00")

	out, err := run(t, app, "n\n", "removeWorker", "anna@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")
	assert.Len(t, app.Store.Workers(), 1)

	out, err = run(t, app, "y\n", "removeWorker", "anna@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed Anna Kovacs and 1 shifts")
	assert.Empty(t, app.Store.Workers())
}

func TestDepartmentCommands(t *testing.T) {
	app, _ := newTestApp(t)
	seedAnna(t, app)
	mustRun(t, app, "addDepartment", "Bar")

	out := mustRun(t, app, "listDepartments")
	assert.Contains(t, out, "kitchen")
	assert.Contains(t, out, "bar")

	_, err := run(t, app, "", "removeDepartment", "kitchen")
	assert.ErrorIs(t, err, model.ErrDepartmentInUse)

	mustRun(t, app, "removeDepartment", "bar")
	assert.Equal(t, []string{"kitchen"}, app.Store.Departments())
}

func TestHolidayCommands(t *testing.T) {
	app, _ := newTestApp(t)

	mustRun(t, app, "addHoliday", "2024-07-01", "Summer closing", "--mandatory")
	assert.Len(t, app.Store.MandatoryVacations(2024), 1)

	out := mustRun(t, app, "holidays", "2024")
	assert.Contains(t, out, "Summer closing")

	id := app.Store.MandatoryVacations(2024)[0].ID
	mustRun(t, app, "removeHoliday", id)
	assert.Empty(t, app.Store.MandatoryVacations(2024))
}

func TestShiftCommands(t *testing.T) {
	app, _ := newTestApp(t)
	seedAnna(t, app)

	out := mustRun(t, app, "addShift", "Anna Kovacs", "2024-01-08", "08:00", "16:00")
	assert.Contains(t, out, "Anna Kovacs booked on 2024-01-08 08:00-16:00 (regular)")

	_, err := run(t, app, "", "addShift", "Anna Kovacs", "2024-01-08", "17:00", "20:00")
	assert.ErrorIs(t, err, model.ErrDuplicatePerDay)

	week, err := app.Engine.Week("2024-01-08")
	require.NoError(t, err)
	require.Len(t, week["2024-01-08"], 1)
	id := week["2024-01-08"][0].ID

	mustRun(t, app, "editShift", id, "--end", "14:00")
	shift, ok := app.Engine.Find(id)
	require.True(t, ok)
	assert.Equal(t, "14:00", shift.EndTime)
	assert.Equal(t, "08:00", shift.StartTime)

	mustRun(t, app, "moveShift", id, "2024-01-09")
	shift, ok = app.Engine.Find(id)
	require.True(t, ok)
	assert.Equal(t, "2024-01-09", shift.Date)

	out = mustRun(t, app, "viewWeek", "2024-01-10")
	assert.Contains(t, out, "Anna Kovacs")
	assert.Contains(t, out, "08:00-14:00")

	out = mustRun(t, app, "removeShift", id)
	assert.Contains(t, out, "Shift removed")
	out = mustRun(t, app, "removeShift", id)
	assert.Contains(t, out, "Nothing to remove")
}

func TestAddShiftUnknownWorker(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := run(t, app, "", "addShift", "Nobody", "2024-01-08", "08:00", "16:00")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCopyWeekPastesIntoTarget(t *testing.T) {
	app, _ := newTestApp(t)
	seedAnna(t, app)
	mustRun(t, app, "addShift", "Anna Kovacs", "2024-01-08", "08:00", "16:00")
	mustRun(t, app, "addShift", "Anna Kovacs", "2024-01-10", "10:00", "18:00")

	out := mustRun(t, app, "copyWeek", "2024-01-08", "2024-01-17")
	assert.Contains(t, out, "Copied 2 shifts")
	assert.Contains(t, out, "Added:   2")

	week, err := app.Engine.Week("2024-01-15")
	require.NoError(t, err)
	assert.Len(t, week["2024-01-15"], 1)
	assert.Len(t, week["2024-01-17"], 1)

	out = mustRun(t, app, "clearWeek", "2024-01-15", "--yes")
	assert.Contains(t, out, "Removed 2 shifts")
}

func TestCopyEmptyWeek(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := run(t, app, "", "copyWeek", "2024-01-08")
	assert.ErrorIs(t, err, model.ErrEmptyWeek)
}

func TestPasteWithoutCopy(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := run(t, app, "", "pasteWeek", "2024-01-15")
	assert.ErrorIs(t, err, model.ErrClipboardEmpty)
}

func TestClearMonth(t *testing.T) {
	app, _ := newTestApp(t)
	seedAnna(t, app)
	mustRun(t, app, "addShift", "Anna Kovacs", "2024-01-31", "08:00", "16:00")
	mustRun(t, app, "addShift", "Anna Kovacs", "2024-02-01", "08:00", "16:00")

	out, err := run(t, app, "no\n", "clearMonth", "2024-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")

	out = mustRun(t, app, "clearMonth", "2024-01", "-y")
	assert.Contains(t, out, "Removed 1 shifts")

	_, err = run(t, app, "", "clearMonth", "January")
	assert.Error(t, err)
}

func TestStatsCommand(t *testing.T) {
	app, _ := newTestApp(t)
	seedAnna(t, app)
	for _, date := range []string{"2024-01-08", "2024-01-09"} {
		mustRun(t, app, "addShift", "Anna Kovacs", date, "08:00", "16:00")
	}

	out := mustRun(t, app, "stats", "2024-01-10")
	assert.Contains(t, out, "Hours:     16.0")
	assert.Contains(t, out, "Anna Kovacs")
	assert.Contains(t, out, "Ft")

	_, err := run(t, app, "", "stats", "--period", "fortnight")
	assert.Error(t, err)
}

func TestDefaultAnchor(t *testing.T) {
	now := time.Date(2024, time.March, 5, 9, 0, 0, 0, time.Local)

	assert.Equal(t, "2024-03-05", defaultAnchor("week", now))
	assert.Equal(t, "2024-03", defaultAnchor("month", now))
	assert.Equal(t, "2024", defaultAnchor("year", now))
}

func TestExportImportRoundTrip(t *testing.T) {
	app, _ := newTestApp(t)
	seedAnna(t, app)
	mustRun(t, app, "addShift", "Anna Kovacs", "2024-01-08", "08:00", "16:00")

	path := filepath.Join(t.TempDir(), "export.json")
	out := mustRun(t, app, "export", path)
	assert.Contains(t, out, "Exported to")

	other, _ := newTestApp(t)
	out = mustRun(t, other, "import", path)
	assert.Contains(t, out, "Workers added:   1")
	assert.Contains(t, out, "Shifts added:    1")

	w, ok := other.Store.FindWorkerByEmail("anna@example.com")
	require.True(t, ok)
	assert.Equal(t, "kitchen", w.Department)
	assert.True(t, other.Engine.HasShiftOnDate(w.ID, "2024-01-08"))
}

func TestExportToStdout(t *testing.T) {
	app, _ := newTestApp(t)
	seedAnna(t, app)

	out := mustRun(t, app, "export")
	assert.Contains(t, out, `"anna@example.com"`)
}

func TestImportUnknownFormat(t *testing.T) {
	app, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "shifts.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := run(t, app, "", "import", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown import format")
}

func TestImportCSV(t *testing.T) {
	app, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "shifts.csv")
	csv := "Date,Worker,Start,End\n2024-01-08,Anna Kovacs,08:00,16:00\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	out := mustRun(t, app, "import", path)
	assert.Contains(t, out, "Import completed")

	w, ok := app.Store.FindWorkerByName("Anna Kovacs")
	require.True(t, ok)
	assert.True(t, app.Engine.HasShiftOnDate(w.ID, "2024-01-08"))
}

func TestExportWorkbook(t *testing.T) {
	app, _ := newTestApp(t)
	seedAnna(t, app)
	mustRun(t, app, "addShift", "Anna Kovacs", "2024-01-08", "08:00", "16:00")

	dir := t.TempDir()
	for _, anchor := range []string{"2024-01-10", "2024-01"} {
		path := filepath.Join(dir, anchor+".xlsx")
		mustRun(t, app, "exportWorkbook", anchor, path)

		f, err := excelize.OpenFile(path)
		require.NoError(t, err)
		assert.NotEmpty(t, f.GetSheetList())
		require.NoError(t, f.Close())
	}

	_, err := run(t, app, "", "exportWorkbook", "soon", filepath.Join(dir, "x.xlsx"))
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "x.xlsx"))
	assert.True(t, os.IsNotExist(statErr))
}

type fakePublisher struct {
	spreadsheetID string
	title         string
	rows          [][]string
	err           error
}

func (p *fakePublisher) WriteTab(ctx context.Context, spreadsheetID, title string, rows [][]string) error {
	p.spreadsheetID = spreadsheetID
	p.title = title
	p.rows = rows
	return p.err
}

func TestPublishWeek(t *testing.T) {
	app, _ := newTestApp(t)
	seedAnna(t, app)
	mustRun(t, app, "addShift", "Anna Kovacs", "2024-01-08", "08:00", "16:00")

	publisher := &fakePublisher{}
	created := 0
	app.NewPublisher = func(ctx context.Context) (services.SheetPublisher, error) {
		created++
		return publisher, nil
	}

	_, err := run(t, app, "", "publishWeek", "2024-01-10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no spreadsheet configured")
	assert.Zero(t, created)

	out := mustRun(t, app, "publishWeek", "2024-01-10", "--spreadsheet", "sheet-1")
	assert.Contains(t, out, "Published")
	assert.Equal(t, "sheet-1", publisher.spreadsheetID)
	assert.Contains(t, publisher.title, "Jan 08 2024")
	require.Len(t, publisher.rows, 2)
	assert.Equal(t, "Anna Kovacs", publisher.rows[1][0])

	app.Cfg.Sheets.SpreadsheetID = "sheet-2"
	mustRun(t, app, "publishWeek", "2024-01-10")
	assert.Equal(t, "sheet-2", publisher.spreadsheetID)
	assert.Equal(t, 1, created)
}

func TestPublishWeekClientError(t *testing.T) {
	app, _ := newTestApp(t)
	app.Cfg.Sheets.SpreadsheetID = "sheet-1"
	app.NewPublisher = func(ctx context.Context) (services.SheetPublisher, error) {
		return nil, errors.New("no token")
	}

	_, err := run(t, app, "", "publishWeek", "2024-01-10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create sheets client")
}

func TestInteractiveSession(t *testing.T) {
	app, mem := newTestApp(t)

	script := strings.Join([]string{
		"addDepartment kitchen",
		`addWorker "Anna Kovacs" --department kitchen`,
		`addShift "Anna Kovacs" 2024-01-08 08:00 16:00 --notes "opening shift"`,
		"copyWeek 2024-01-08",
		"pasteWeek 2024-01-15 --mode merge",
		"bogus",
		"addShift",
		"help",
		"exit",
		"listWorkers",
	}, "\n") + "\n"

	out, err := run(t, app, script, "interactive")
	require.NoError(t, err)

	assert.Contains(t, out, "Copied 1 shifts")
	assert.Contains(t, out, "Pasted into week of 2024-01-15 (merge)")
	assert.Contains(t, out, "Unknown command: bogus")
	assert.Contains(t, out, "❌ Error:")
	assert.Contains(t, out, "Available commands:")
	assert.NotContains(t, out, "Start an interactive session")
	assert.Contains(t, out, "Goodbye!")
	assert.NotContains(t, out, "Found 1 workers")

	w, ok := app.Store.FindWorkerByName("Anna Kovacs")
	require.True(t, ok)
	week, err := app.Engine.Week("2024-01-15")
	require.NoError(t, err)
	require.Len(t, week["2024-01-15"], 1)
	assert.Equal(t, w.ID, week["2024-01-15"][0].WorkerID)
	assert.Equal(t, "opening shift", week["2024-01-15"][0].Notes)

	// every successful change is flushed before the next prompt
	assert.GreaterOrEqual(t, mem.Saves(), 4)
	assert.False(t, app.Syncer.Pending())
}

func TestInteractiveResetsFlags(t *testing.T) {
	app, _ := newTestApp(t)

	script := strings.Join([]string{
		"addDepartment bar",
		"addWorker Bela --department bar --inactive",
		"addWorker Cili",
		"quit",
	}, "\n") + "\n"
	_, err := run(t, app, script, "interactive")
	require.NoError(t, err)

	cili, ok := app.Store.FindWorkerByName("Cili")
	require.True(t, ok)
	assert.True(t, cili.IsActive)
	assert.Empty(t, cili.Department)

	bela, ok := app.Store.FindWorkerByName("Bela")
	require.True(t, ok)
	assert.False(t, bela.IsActive)
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"listWorkers --all", []string{"listWorkers", "--all"}},
		{`addWorker "Anna Kovacs"  --email a@b.hu`, []string{"addWorker", "Anna Kovacs", "--email", "a@b.hu"}},
		{"addShift\tAnna\t2024-01-08", []string{"addShift", "Anna", "2024-01-08"}},
		{`editShift x --notes ""`, []string{"editShift", "x", "--notes", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, splitArgs(tt.line))
		})
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, [][]string{
		{"Name", "Hours"},
		{"Anna Kovacs", "8.0"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name         Hours", lines[0])
	assert.Equal(t, "----         -----", lines[1])
	assert.Equal(t, "Anna Kovacs  8.0", lines[2])

	buf.Reset()
	printTable(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestOpenDatabase(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("memory", func(t *testing.T) {
		database, err := OpenDatabase(ctx, &config.Config{Storage: config.StorageConfig{Backend: config.BackendMemory}}, logger)
		require.NoError(t, err)
		assert.IsType(t, &db.MemoryStore{}, database)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := &config.Config{
			OwnerID: "test",
			Storage: config.StorageConfig{
				Backend:    config.BackendSQLite,
				SQLitePath: filepath.Join(t.TempDir(), "rota.db"),
			},
		}
		database, err := OpenDatabase(ctx, cfg, logger)
		require.NoError(t, err)
		defer database.Close()

		snapshot, err := database.LoadSnapshot(ctx)
		require.NoError(t, err)
		assert.Nil(t, snapshot)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := OpenDatabase(ctx, &config.Config{Storage: config.StorageConfig{Backend: "redis"}}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown storage backend")
	})
}

func TestCloseFlushesPendingChanges(t *testing.T) {
	app, mem := newTestApp(t)

	var statuses []db.SyncStatus
	app.OnSync(func(s db.SyncStatus) { statuses = append(statuses, s) })

	seedAnna(t, app)
	assert.True(t, app.Syncer.Pending())
	assert.Zero(t, mem.Saves())

	require.NoError(t, app.Close(context.Background()))
	assert.Equal(t, 1, mem.Saves())
	require.Len(t, statuses, 1)
	assert.Equal(t, db.SyncSaved, statuses[0].State)

	// state survives into a new app over the same database
	reopened, err := NewAppContext(context.Background(), "test", app.Cfg, mem, zap.NewNop())
	require.NoError(t, err)
	_, ok := reopened.Store.FindWorkerByEmail("anna@example.com")
	assert.True(t, ok)
	assert.Equal(t, []string{"kitchen"}, reopened.Store.Departments())
}

func TestCloseReportsSaveError(t *testing.T) {
	app, mem := newTestApp(t)
	mem.SaveErr = errors.New("disk full")

	seedAnna(t, app)
	err := app.Close(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
