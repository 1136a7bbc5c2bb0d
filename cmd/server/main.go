/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the finance engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, config.yaml, PESOPLAN_* env, .env file)
  2. Initialize SQLite store
  3. Wire ledger, affordability engine, insight service, recalculator
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides config)
  -db      SQLite database path (overrides config)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweep scheduler and recalculation worker
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/finance.db"

  # Run with Gemini advisory enabled
  PESOPLAN_AI_ENABLED=true GEMINI_API_KEY=... ./server

SEE ALSO:
  - config/config.go: Configuration loading
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pesoplan/finance-engine/api"
	"github.com/pesoplan/finance-engine/config"
	"github.com/pesoplan/finance-engine/forecast"
	"github.com/pesoplan/finance-engine/insight"
	"github.com/pesoplan/finance-engine/ledger"
	"github.com/pesoplan/finance-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	log := config.NewLogger(cfg)

	// Storage
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	// Domain wiring
	ldg := ledger.New(store)

	cache := insight.NewCache(time.Duration(cfg.Insight.CacheTTLMinutes) * time.Minute)
	ldg.AddListener(cache)

	var generator insight.Generator
	if cfg.AI.Enabled {
		gem, err := insight.NewGeminiGenerator(context.Background(), cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			log.WithError(err).Warn("advisory generator unavailable, using deterministic advisories")
		} else {
			defer gem.Close()
			generator = gem
		}
	}
	advisor := insight.NewService(generator, cache, log)

	engine := &forecast.Engine{Store: store, Advisor: advisor, Log: log}

	recalc := forecast.NewRecalculator(engine, store, log)
	ldg.AddListener(recalc)
	recalc.Start()
	defer recalc.Stop()

	scheduler := api.NewSweepScheduler(recalc, log)
	scheduler.Cache = cache
	scheduler.CheckInterval = time.Duration(cfg.Recalc.SweepIntervalMinutes) * time.Minute
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP
	handler := api.NewHandler(ldg, engine, recalc, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Server starting on http://localhost:%d", cfg.Server.Port)
		log.Infof("API available at http://localhost:%d/api", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("Server stopped")
}
