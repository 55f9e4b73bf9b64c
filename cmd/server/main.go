/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the folio ledger server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Initialize SQLite store
  3. Wire notifications, receivables and the accounting collaborators
  4. Create the folio engine and the front desk
  5. Start the night audit scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  See config/config.go. AMQP_URL turns on RabbitMQ notices and REDIS_ADDR
  moves receivable balances to Redis.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the night audit scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close broker, cache and database connections

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration keys
  - store/sqlite/sqlite.go: Database implementation
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

	"github.com/warp/folio-engine/api"
	"github.com/warp/folio-engine/config"
	"github.com/warp/folio-engine/external"
	"github.com/warp/folio-engine/folio"
	"github.com/warp/folio-engine/hotel"
	"github.com/warp/folio-engine/notify"
	"github.com/warp/folio-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, *port, *dbPath, logger); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, port int, dbPath string, logger *slog.Logger) error {
	ctx := context.Background()

	// Initialize store
	store, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	// Notifications
	notifier := notify.Multi{notify.NewLog(logger)}
	if cfg.AMQPURL != "" {
		broker, err := notify.DialAMQP(cfg.AMQPURL, cfg.NotifyQueue)
		if err != nil {
			return fmt.Errorf("connect notification broker: %w", err)
		}
		defer broker.Close()
		notifier = append(notifier, broker)
		logger.Info("publishing notices", slog.String("queue", cfg.NotifyQueue))
	}

	// Receivables
	var receivables external.ReceivableBook = external.NewMemoryReceivables()
	if cfg.RedisAddr != "" {
		rr, client, err := external.NewRedisReceivables(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("connect receivables cache: %w", err)
		}
		defer client.Close()
		receivables = rr
		logger.Info("receivables in redis", slog.String("addr", cfg.RedisAddr))
	}

	engine := folio.NewEngine(store, folio.Config{
		Clock:       folio.SystemClock,
		Logger:      logger,
		Notifier:    notifier,
		Receivables: receivables,
		Credits:     external.NewCredits(),
		Invoices:    external.NewInvoices(receivables),
		Stock:       external.NewStock(),
	})
	frontDesk := hotel.New(engine, hotel.WithLogger(logger))

	handler := api.NewHandler(frontDesk, cfg.HotelCompany, cfg.ManagerRole)
	router := api.NewRouter(handler)

	scheduler := api.NewNightAuditScheduler(frontDesk, cfg.HotelCompany, logger)
	scheduler.Hour = cfg.NightAuditHour
	scheduler.Enabled = cfg.NightAuditEnabled
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.Int("port", port),
			slog.String("db", dbPath),
			slog.String("company", cfg.HotelCompany))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errs:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
