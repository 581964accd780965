package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/turbotech/turboparts-backend/internal/modules/inventory"
	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/modules/purchase"
	"github.com/turbotech/turboparts-backend/internal/modules/sale"
	"github.com/turbotech/turboparts-backend/internal/platform/config"
	"github.com/turbotech/turboparts-backend/internal/platform/database"
	"github.com/turbotech/turboparts-backend/internal/platform/jobs"
	"github.com/turbotech/turboparts-backend/internal/platform/logger"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if !cfg.RedisEnabled() {
		log.Fatal("worker requires REDIS_ADDR")
	}
	policy, ok := ledger.ParseOversellPolicy(cfg.StockOversellPolicy)
	if !ok {
		log.Fatalf("unknown STOCK_OVERSELL_POLICY %q", cfg.StockOversellPolicy)
	}

	db, err := database.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer db.Close()

	scanner := inventory.NewService(
		purchase.NewPostgresRepository(db, policy),
		sale.NewPostgresRepository(db, policy),
		inventory.NewPostgresStockRepository(db),
		inventory.ServiceConfig{
			Markup:            cfg.Markup(),
			LowStockThreshold: cfg.LowStockThreshold,
			Policy:            policy,
			Currency:          cfg.Currency,
		}, log)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisAddr:    cfg.RedisAddr,
		Logger:       log,
		Scanner:      scanner,
		ScanCronSpec: cfg.LowStockScanCron,
	})
	if err != nil {
		log.WithError(err).Fatal("build worker")
	}
	if err := worker.Run(); err != nil {
		log.WithError(err).Fatal("worker stopped")
	}
}
