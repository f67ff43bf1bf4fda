package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/finder/internal/api/handlers"
	"github.com/cloo-solutions/finder/internal/config"
	"github.com/cloo-solutions/finder/internal/jobs"
	"github.com/cloo-solutions/finder/internal/server"
	"github.com/cloo-solutions/finder/internal/service"
	"github.com/cloo-solutions/finder/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the search server",
		Long:  "Start the finder HTTP server with the entities of the catalog file",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides FINDER_PORT)")
	cmd.Flags().String("catalog", "", "Catalog file (overrides FINDER_CATALOG_PATH)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}
	if path, _ := cmd.Flags().GetString("catalog"); path != "" {
		cfg.CatalogPath = path
	}

	shutdownTelemetry, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
	}, logger)
	if err != nil {
		logger.Warn("telemetry init failed, continuing without tracing", zap.Error(err))
	} else {
		defer shutdownTelemetry()
	}

	registry, err := loadRegistry(cfg.CatalogPath, logger)
	if err != nil {
		return err
	}

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	if noMigrate, _ := cmd.Flags().GetBool("no-migrate"); !noMigrate {
		if err := b.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	tokens, err := service.NewTokenAuthenticator(cfg.AdminTokens)
	if err != nil {
		return fmt.Errorf("invalid %s_ADMIN_TOKENS: %w", config.EnvPrefix, err)
	}
	if tokens.Len() == 0 {
		logger.Warn("no admin tokens configured; admin routes will reject every request")
	}

	searchSvc := b.searchService(registry)
	routerCfg := server.RouterConfig{
		TokenValidator: tokens,
		SearchHandler:  handlers.NewSearchHandler(searchSvc, cfg.MaxPerPage, logger),
		Logger:         logger,
	}

	var retentionWorker *jobs.Worker
	if cfg.EnableSearchLogs {
		logSvc := service.NewSearchLogService(b.logs, logger)
		routerCfg.SearchLogHandler = handlers.NewSearchLogHandler(logSvc, cfg.LogUserIDs, logger)

		if retention := cfg.Retention(); retention > 0 {
			retentionWorker = jobs.NewWorker("search_log_retention", jobs.NewRetentionProcessor(logSvc, retention), cfg.RetentionInterval, logger)
			go retentionWorker.Start(ctx)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logger.Info("shutting down")
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	}

	if retentionWorker != nil {
		retentionWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}
