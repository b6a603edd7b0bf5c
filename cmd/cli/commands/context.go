package commands

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/clients/sheetsclient"
	"github.com/jakechorley/shift-planner/pkg/core/leave"
	"github.com/jakechorley/shift-planner/pkg/core/services"
	"github.com/jakechorley/shift-planner/pkg/core/shifts"
	"github.com/jakechorley/shift-planner/pkg/core/store"
	"github.com/jakechorley/shift-planner/pkg/db"
	"github.com/jakechorley/shift-planner/pkg/postgres"
	"github.com/jakechorley/shift-planner/pkg/sqlite"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Env      string
	Ctx      context.Context
	Logger   *zap.Logger
	Database db.Database
	Syncer   *db.Syncer
	Store    *store.Store
	Engine   *shifts.Engine
	Advisor  *leave.Advisor

	// NewPublisher is called on first publish so other commands never start the OAuth flow
	NewPublisher func(ctx context.Context) (services.SheetPublisher, error)
	publisher    services.SheetPublisher

	hooksMu   sync.Mutex
	syncHooks []func(db.SyncStatus)
}

// OpenDatabase connects the snapshot store selected by cfg.Storage.Backend
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (db.Database, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		logger.Warn("Using in-memory storage; nothing will be saved")
		return db.NewMemoryStore(), nil

	case config.BackendPostgres:
		logger.Info("Connecting to postgres")
		pg, err := postgres.NewDB(ctx, cfg.Storage.PostgresURL, cfg.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := pg.RunMigrations(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return pg, nil

	case config.BackendSQLite, "":
		logger.Info("Opening sqlite database", zap.String("path", cfg.Storage.SQLitePath))
		lite, err := sqlite.Open(cfg.Storage.SQLitePath, cfg.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return lite, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// NewAppContext is Init on a fresh AppContext
func NewAppContext(ctx context.Context, env string, cfg *config.Config, database db.Database, logger *zap.Logger) (*AppContext, error) {
	app := &AppContext{}
	if err := app.Init(ctx, env, cfg, database, logger); err != nil {
		return nil, err
	}
	return app, nil
}

// Init loads the saved snapshot from database and builds the store, engine and
// advisor over it. Mutations are written back through a debounced syncer.
// Commands hold the AppContext pointer from before Init runs.
func (app *AppContext) Init(ctx context.Context, env string, cfg *config.Config, database db.Database, logger *zap.Logger) error {
	app.Cfg = cfg
	app.Env = env
	app.Ctx = ctx
	app.Logger = logger
	app.Database = database

	snapshot, err := database.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load saved state: %w", err)
	}
	if snapshot == nil {
		logger.Info("No saved state found, starting empty")
	}

	cal, err := cfg.Calendar()
	if err != nil {
		return fmt.Errorf("failed to build holiday calendar: %w", err)
	}

	app.Syncer = db.NewSyncer(database, logger,
		db.WithDebounce(cfg.Debounce()),
		db.WithStatusCallback(app.notifySync))

	app.Store = store.New(snapshot,
		store.WithPersister(app.Syncer),
		store.WithCalendar(cal),
		store.WithLogger(logger),
		store.WithCurrency(cfg.Currency))

	app.Engine = shifts.NewEngine(app.Store, shifts.Config{
		OneRegularShiftPerDay: cfg.Scheduling.OneShiftPerDay(),
		RevalidateOnMove:      cfg.Scheduling.RevalidateMoves(),
	}, logger)
	app.Advisor = leave.NewAdvisor(app.Store)

	if app.NewPublisher == nil {
		app.NewPublisher = func(ctx context.Context) (services.SheetPublisher, error) {
			client, err := sheetsclient.NewClient(ctx, cfg.Sheets, env, logger)
			if err != nil {
				return nil, err
			}
			return client, nil
		}
	}
	return nil
}

// OnSync registers fn to hear about every background write
func (app *AppContext) OnSync(fn func(db.SyncStatus)) {
	app.hooksMu.Lock()
	defer app.hooksMu.Unlock()
	app.syncHooks = append(app.syncHooks, fn)
}

func (app *AppContext) notifySync(status db.SyncStatus) {
	app.hooksMu.Lock()
	hooks := append([]func(db.SyncStatus){}, app.syncHooks...)
	app.hooksMu.Unlock()
	for _, fn := range hooks {
		fn(status)
	}
}

// Publisher returns the Sheets publisher, creating it on first use
func (app *AppContext) Publisher() (services.SheetPublisher, error) {
	if app.publisher != nil {
		return app.publisher, nil
	}
	if app.NewPublisher == nil {
		return nil, fmt.Errorf("publishing is not configured")
	}
	p, err := app.NewPublisher(app.Ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	app.publisher = p
	return p, nil
}

// Close writes any pending state and releases the database
func (app *AppContext) Close(ctx context.Context) error {
	var err error
	if app.Syncer != nil {
		if err = app.Syncer.Flush(ctx); err != nil {
			app.Logger.Error("Failed to save pending changes", zap.Error(err))
		}
	}
	if app.Database != nil {
		app.Database.Close()
	}
	return err
}
