/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave accrual server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (YAML file, .env, LEAVE_ACCRUAL_* env vars, flags)
  2. Build the zap logger
  3. Initialize SQLite store
  4. Seed accrual policies from seed.policies_file, if set
  5. Create API handler, metrics and router
  6. Start the deficit scan schedule
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file (optional)
  -port    HTTP server port, overrides server.port
  -db      SQLite database path, overrides database.path
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the deficit scan schedule
  2. Stop accepting new connections
  3. Wait for active requests to complete (server.shutdown_timeout)
  4. Close database connection

EXAMPLES:
  ./server -config=config.yaml
  ./server -db=":memory:" -port=3000
  LEAVE_ACCRUAL_LOGGER_LEVEL=debug ./server

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/warp/leave-accrual/api"
	"github.com/warp/leave-accrual/config"
	"github.com/warp/leave-accrual/factory"
	"github.com/warp/leave-accrual/logging"
	"github.com/warp/leave-accrual/store/sqlite"
	"go.uber.org/zap"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	if cfg.Seed.PoliciesFile != "" {
		if err := seedPolicies(context.Background(), store, cfg.Seed.PoliciesFile, logger); err != nil {
			return err
		}
	}

	metrics, err := api.NewMetrics()
	if err != nil {
		return err
	}
	handler := api.NewHandler(store, logger, metrics)
	router := api.NewRouter(handler, api.RouterOptions{AllowedOrigins: cfg.CORS.AllowedOrigins})

	var scanner *api.DeficitScanner
	if cfg.Scheduler.Enabled {
		scanner = api.NewDeficitScanner(handler, cfg.Scheduler.DeficitScanCron)
		if err := scanner.Start(); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr), zap.String("database", cfg.Database.Path))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")
	if scanner != nil {
		scanner.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func seedPolicies(ctx context.Context, store *sqlite.Store, path string, logger *zap.Logger) error {
	policies, err := factory.NewPolicyFactory().LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load seed policies: %w", err)
	}
	for _, p := range policies {
		if err := store.SavePolicy(ctx, p); err != nil {
			return fmt.Errorf("failed to seed policy %q: %w", p.LeaveType, err)
		}
	}
	logger.Info("accrual policies seeded", zap.Int("count", len(policies)), zap.String("file", path))
	return nil
}
