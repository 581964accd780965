// Command admin runs one-off maintenance tasks against the database.
//
//	admin create-admin -email owner@example.com -password secret -name Owner
//	admin rebuild-stock
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/turbotech/turboparts-backend/internal/modules/inventory"
	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/modules/purchase"
	"github.com/turbotech/turboparts-backend/internal/modules/sale"
	"github.com/turbotech/turboparts-backend/internal/modules/user"
	"github.com/turbotech/turboparts-backend/internal/platform/config"
	"github.com/turbotech/turboparts-backend/internal/platform/database"
	"github.com/turbotech/turboparts-backend/internal/platform/logger"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin <create-admin|rebuild-stock> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	switch os.Args[1] {
	case "create-admin":
		err = createAdmin(ctx, cfg, log, os.Args[2:])
	case "rebuild-stock":
		err = rebuildStock(ctx, cfg, log)
	default:
		usage()
	}
	if err != nil {
		log.WithError(err).Fatal(os.Args[1])
	}
}

func createAdmin(ctx context.Context, cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	email := fs.String("email", "", "admin email")
	password := fs.String("password", "", "admin password (min 8 chars)")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	u, err := user.NewService(user.NewPostgresRepository(db), log).
		EnsureAdmin(ctx, user.RegisterRequest{Email: *email, Password: *password, Name: *name})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email}).Info("admin ready")
	return nil
}

func rebuildStock(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	policy, ok := ledger.ParseOversellPolicy(cfg.StockOversellPolicy)
	if !ok {
		return fmt.Errorf("unknown STOCK_OVERSELL_POLICY %q", cfg.StockOversellPolicy)
	}
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := inventory.NewService(
		purchase.NewPostgresRepository(db, policy),
		sale.NewPostgresRepository(db, policy),
		inventory.NewPostgresStockRepository(db),
		inventory.ServiceConfig{Markup: cfg.Markup(), LowStockThreshold: cfg.LowStockThreshold, Policy: policy, Currency: cfg.Currency},
		log)
	n, err := svc.RebuildStockRecords(ctx)
	if err != nil {
		return err
	}
	log.WithField("records", n).Info("stock records rebuilt")
	return nil
}
