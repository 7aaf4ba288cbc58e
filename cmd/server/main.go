/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the chore engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Configure logging
  3. Initialize SQLite store
  4. Seed the household config (or the demo household)
  5. Start the nightly evaluation scheduler
  6. Start HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port       HTTP server port (default: 8080)
  -db         SQLite database path (default: chores.db)
              Use ":memory:" for an in-memory database
  -household  Path to a household YAML file to seed on startup
  -demo       Seed the built-in demo household
  -cron       Cron spec for the nightly evaluation pass
  -log-level  debug, info, warn or error

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the evaluation scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with the demo household
  ./server -db=":memory:" -demo

  # Run with a real household file
  ./server -db=./data/chores.db -household=./household.yaml

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: The nightly evaluation pass
  - factory/household.go: YAML household loading
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/chore-engine/api"
	"github.com/warp/chore-engine/factory"
	"github.com/warp/chore-engine/logging"
	"github.com/warp/chore-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "chores.db", "SQLite database path")
	household := flag.String("household", "", "household YAML file to seed on startup")
	demo := flag.Bool("demo", false, "seed the built-in demo household")
	cronSpec := flag.String("cron", api.DefaultCronSpec, "cron spec for the nightly evaluation pass")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	logging.Setup(*logLevel)

	st, err := sqlite.New(*dbPath)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := seed(st, *household, *demo); err != nil {
		slog.Error("failed to seed household", "error", err)
		os.Exit(1)
	}

	scheduler := api.NewEvaluationScheduler(st)
	scheduler.CronSpec = *cronSpec
	if err := scheduler.Start(); err != nil {
		slog.Error("failed to start evaluation scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	handler := api.NewHandler(st)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", fmt.Sprintf("http://localhost:%d/api", *port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func seed(st *sqlite.Store, householdPath string, demo bool) error {
	ctx := context.Background()
	switch {
	case householdPath != "":
		data, err := os.ReadFile(householdPath)
		if err != nil {
			return err
		}
		hh, err := factory.ParseHousehold(data)
		if err != nil {
			return err
		}
		return factory.Seed(ctx, st, hh)
	case demo:
		hh, err := factory.DemoHousehold()
		if err != nil {
			return err
		}
		return factory.Seed(ctx, st, hh)
	}
	return nil
}
