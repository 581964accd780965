package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/turbotech/turboparts-backend/internal/modules/auth"
	"github.com/turbotech/turboparts-backend/internal/modules/cart"
	"github.com/turbotech/turboparts-backend/internal/modules/catalog"
	"github.com/turbotech/turboparts-backend/internal/modules/contact"
	"github.com/turbotech/turboparts-backend/internal/modules/customer"
	"github.com/turbotech/turboparts-backend/internal/modules/customorder"
	"github.com/turbotech/turboparts-backend/internal/modules/inventory"
	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/modules/purchase"
	"github.com/turbotech/turboparts-backend/internal/modules/sale"
	"github.com/turbotech/turboparts-backend/internal/modules/supplier"
	"github.com/turbotech/turboparts-backend/internal/modules/user"
	"github.com/turbotech/turboparts-backend/internal/platform/cache"
	"github.com/turbotech/turboparts-backend/internal/platform/config"
	"github.com/turbotech/turboparts-backend/internal/platform/database"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
	"github.com/turbotech/turboparts-backend/internal/platform/jobs"
	"github.com/turbotech/turboparts-backend/internal/platform/lock"
	"github.com/turbotech/turboparts-backend/internal/platform/logger"
	"github.com/turbotech/turboparts-backend/internal/platform/metrics"
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

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("api stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy, ok := ledger.ParseOversellPolicy(cfg.StockOversellPolicy)
	if !ok {
		return fmt.Errorf("unknown STOCK_OVERSELL_POLICY %q", cfg.StockOversellPolicy)
	}

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("connected to postgres")

	var rdb *redis.Client
	if cfg.RedisEnabled() {
		rdb, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
		log.WithField("addr", cfg.RedisAddr).Info("connected to redis")
	} else {
		log.Warn("REDIS_ADDR not set: cart disabled, sale locks and background scans off")
	}

	m := metrics.New()

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(httpx.Stack(httpx.StackConfig{
		Logger:         log,
		Production:     cfg.IsProduction(),
		RequestTimeout: cfg.AppRequestTimeout,
	})...)
	router.Use(m.Middleware)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			httpx.RespondError(w, log, fmt.Errorf("%w: postgres: %v", httpx.ErrUnavailable, err))
			return
		}
		if rdb != nil {
			if err := rdb.Ping(r.Context()).Err(); err != nil {
				httpx.RespondError(w, log, fmt.Errorf("%w: redis: %v", httpx.ErrUnavailable, err))
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", m.Handler())

	public := router.With(httpx.PublicRateLimit(cfg.PublicRateLimit))

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo, log)
	authService := auth.NewService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	authHandler := auth.NewHandler(authService, userService, log)
	authHandler.RegisterRoutes(public)

	// ── Catalog & storefront ────────────────────────────────
	catalogService := catalog.NewService(catalog.NewPostgresRepository(db))
	catalogHandler := catalog.NewHandler(catalogService, log)
	catalogHandler.RegisterRoutes(router)

	var cartStore cart.Store = cart.Unavailable{}
	if rdb != nil {
		cartStore = cart.NewRedisStore(rdb, cfg.CartTTL)
	}
	cart.NewHandler(cart.NewService(cartStore, catalogService, cfg.Currency, log), log).RegisterRoutes(public)

	customOrderHandler := customorder.NewHandler(customorder.NewService(customorder.NewPostgresRepository(db), log), log)
	customOrderHandler.RegisterRoutes(public)

	contactHandler := contact.NewHandler(contact.NewService(contact.NewPostgresRepository(db), log), log)
	contactHandler.RegisterRoutes(public)

	// ── Back office ─────────────────────────────────────────
	supplierService := supplier.NewService(supplier.NewPostgresRepository(db))
	customerService := customer.NewService(customer.NewPostgresRepository(db))

	purchaseRepo := purchase.NewPostgresRepository(db, policy)
	saleRepo := sale.NewPostgresRepository(db, policy)
	inventoryService := inventory.NewService(purchaseRepo, saleRepo, inventory.NewPostgresStockRepository(db), inventory.ServiceConfig{
		Markup:            cfg.Markup(),
		LowStockThreshold: cfg.LowStockThreshold,
		Policy:            policy,
		Currency:          cfg.Currency,
	}, log)

	saleDeps := sale.Deps{
		Repo:      saleRepo,
		Customers: customerService,
		Snapshots: inventoryService,
		Metrics:   m,
		Log:       log,
	}
	if rdb != nil {
		saleDeps.Locker = lock.NewRedisLocker(rdb, "lock:stock:", cfg.SaleLockTTL, log)
		jobsClient := jobs.NewClient(cfg.RedisAddr)
		defer jobsClient.Close()
		saleDeps.Jobs = jobsClient
	}

	router.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(auth.Middleware(authService, log))
		authHandler.RegisterAdminRoutes(r)
		user.NewHandler(userService, log).RegisterRoutes(r)
		catalogHandler.RegisterAdminRoutes(r)
		supplier.NewHandler(supplierService, log).RegisterRoutes(r)
		customer.NewHandler(customerService, log).RegisterRoutes(r)
		purchase.NewHandler(purchase.NewService(purchaseRepo, supplierService, m, log), log).RegisterRoutes(r)
		sale.NewHandler(sale.NewService(saleDeps), log).RegisterRoutes(r)
		inventory.NewHandler(inventoryService, log).RegisterRoutes(r)
		customOrderHandler.RegisterAdminRoutes(r)
		contactHandler.RegisterAdminRoutes(r)
	})

	// ── Start Server ────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.AppPort, "env": cfg.AppEnv}).Info("turboparts api starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
