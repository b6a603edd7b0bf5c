package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/cmd/cli/commands"
	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/utils/logging"
)

var (
	env      string
	logLevel string
	app      = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rota",
		Short: "Shift Planner CLI - Manage workers, shifts and rosters",
		Long:  `A CLI tool for managing workers and departments, booking shifts and leave, and exporting or publishing weekly rosters.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return closeApp()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (selects rota_config.<env>.yaml and .env.<env>)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Console log level (debug, info, warn, error)")

	rootCmd.AddCommand(commands.All(app)...)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, database and the core
func initApp() error {
	ctx := context.Background()

	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger, logFile, err := logging.New(logging.Options{Env: env, ConsoleLevel: level})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting application", zap.String("environment", env), zap.String("log_file", logFile))

	if err := config.LoadEnvFiles(env); err != nil {
		return err
	}

	logger.Info("Loading configuration")
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Debug("Configuration loaded successfully", zap.String("backend", cfg.Storage.Backend))

	database, err := commands.OpenDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if err := app.Init(ctx, env, cfg, database, logger); err != nil {
		database.Close()
		return err
	}
	logger.Info("Application initialized",
		zap.Int("workers", len(app.Store.Workers())),
		zap.Int("departments", len(app.Store.Departments())))
	return nil
}

// closeApp saves pending changes before the process exits
func closeApp() error {
	if app.Logger == nil {
		return nil
	}
	defer app.Logger.Sync()

	if err := app.Close(context.Background()); err != nil {
		return fmt.Errorf("changes could not be saved: %w", err)
	}
	return nil
}
