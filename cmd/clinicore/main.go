package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/clinicore-erp/clinicore/internal/app"
	"github.com/clinicore-erp/clinicore/internal/billing"
	"github.com/clinicore-erp/clinicore/internal/catalog"
	"github.com/clinicore-erp/clinicore/internal/inventory"
	"github.com/clinicore-erp/clinicore/internal/orders"
	"github.com/clinicore-erp/clinicore/internal/platform/cache"
	"github.com/clinicore-erp/clinicore/internal/platform/db"
	"github.com/clinicore-erp/clinicore/internal/procurement"
	"github.com/clinicore-erp/clinicore/internal/returns"
	"github.com/clinicore-erp/clinicore/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()
	auditSink := jobs.NewAuditSink(queueClient, logger)

	itemLocks := cache.NewRedisLock(redisClient, cfg.LockTTL, cfg.LockWait)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo, itemLocks, logger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	returnsRepo := returns.NewRepository(dbpool)
	catalogRepo := catalog.NewRepository(dbpool)
	ledger := billing.NewPGLedger(dbpool)

	procurementRepo := procurement.NewRepository(dbpool)
	procurementService := procurement.NewService(procurementRepo, inventoryService, returnsRepo, logger)
	procurementHandler := procurement.NewHandler(logger, procurementService, auditSink)

	ordersRepo := orders.NewRepository(dbpool)
	ordersService := orders.NewService(ordersRepo, catalogRepo, returnsRepo, ledger, logger)
	ordersHandler := orders.NewHandler(logger, ordersService, auditSink)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		InventoryHandler:   inventoryHandler,
		ProcurementHandler: procurementHandler,
		OrdersHandler:      ordersHandler,
		JobHandler:         jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
