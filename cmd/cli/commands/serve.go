package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/stats"
	"github.com/jakechorley/shift-planner/pkg/handlers"
)

const shutdownTimeout = 10 * time.Second

// NewHandler builds the HTTP handler over the app's core and subscribes it to sync updates
func NewHandler(app *AppContext) *handlers.Handler {
	h := handlers.New(handlers.Deps{
		Store:        app.Store,
		Engine:       app.Engine,
		Advisor:      app.Advisor,
		Logger:       app.Logger,
		StatsOptions: stats.Options{OvertimeThresholdHours: app.Cfg.Scheduling.OvertimeThresholdHours},
	})
	app.OnSync(h.RecordSync)
	return h
}

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planner's JSON API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := addr
			if addr == "" {
				addr = app.Cfg.Server.Addr
			}
			if os.Getenv("GIN_MODE") == "" {
				gin.SetMode(gin.ReleaseMode)
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           NewHandler(app).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			errs := make(chan error, 1)
			go func() {
				app.Logger.Info("Server starting", zap.String("addr", addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errs <- err
				}
				close(errs)
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s (Ctrl+C to stop)\n", addr)

			select {
			case err := <-errs:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
			case <-ctx.Done():
			}

			app.Logger.Info("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server.addr)")
	return cmd
}
