package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	appbilling "github.com/satguard/backend/internal/application/billing"
	appreconciliation "github.com/satguard/backend/internal/application/reconciliation"
	appsupplier "github.com/satguard/backend/internal/application/supplier"
	"github.com/satguard/backend/internal/infrastructure/config"
	"github.com/satguard/backend/internal/infrastructure/locking"
	"github.com/satguard/backend/internal/infrastructure/logger"
	"github.com/satguard/backend/internal/infrastructure/notification"
	"github.com/satguard/backend/internal/infrastructure/persistence"
	"github.com/satguard/backend/internal/infrastructure/scheduler"
	"github.com/satguard/backend/internal/interfaces/http/handler"
	"github.com/satguard/backend/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting SAT Guard backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database with a zap-backed gorm logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Redis backs the per-tenant reconciliation lock. The service
	// degrades to unguarded runs when Redis is unreachable at boot.
	var lockManager appreconciliation.LockManager
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable, reconciliation runs will not be serialized", zap.Error(err))
	} else {
		lockManager = locking.NewRedisLockManager(redisClient)
		log.Info("Redis connected")
	}
	cancelPing()
	defer func() {
		_ = redisClient.Close()
	}()

	// Repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	membershipRepo := persistence.NewGormMembershipRepository(db.DB)
	groupRepo := persistence.NewGormGroupRepository(db.DB)
	blocklistRepo := persistence.NewGormBlocklistRepository(db.DB)
	gazetteRepo := persistence.NewGormGazetteRepository(db.DB)
	runRepo := persistence.NewGormRunRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	// Application services
	membershipService := appsupplier.NewMembershipService(membershipRepo, groupRepo, tenantRepo, log)
	reconciliationService := appreconciliation.NewService(
		runRepo, membershipRepo, tenantRepo, blocklistRepo, gazetteRepo, uow, lockManager, log,
	)
	notifier := notification.NewLogNotifier(log)
	fleetService := appreconciliation.NewFleetService(reconciliationService, tenantRepo, notifier, log)
	paymentService := appbilling.NewPaymentService(orderRepo, reconciliationService, log)

	unitPrice, err := decimal.NewFromString(cfg.Billing.ExcessUnitPrice)
	if err != nil {
		log.Fatal("Invalid excess unit price", zap.String("value", cfg.Billing.ExcessUnitPrice), zap.Error(err))
	}

	// HTTP layer
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.New(router.Config{
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		Logger:           log,
	}, router.Handlers{
		Health:         handler.NewHealthHandler(db.Ping),
		Supplier:       handler.NewSupplierHandler(membershipService, log),
		Reconciliation: handler.NewReconciliationHandler(reconciliationService, fleetService, log),
		Payment:        handler.NewPaymentHandler(paymentService, unitPrice, log),
	})
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	// Daily fleet trigger
	var trigger *scheduler.FleetTrigger
	if cfg.Scheduler.Enabled {
		hour, minute, err := scheduler.ParseDailySchedule(cfg.Scheduler.DailyCronSchedule)
		if err != nil {
			log.Fatal("Invalid scheduler cron schedule", zap.Error(err))
		}
		triggerCfg := scheduler.DefaultFleetTriggerConfig()
		triggerCfg.Hour = hour
		triggerCfg.Minute = minute
		triggerCfg.DofPriority = cfg.Scheduler.DofPriority
		triggerCfg.JobTimeout = cfg.Scheduler.JobTimeout
		trigger = scheduler.NewFleetTrigger(triggerCfg, fleetService, log)
		if err := trigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start fleet trigger", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if trigger != nil {
		if err := trigger.Stop(shutdownCtx); err != nil {
			log.Error("Fleet trigger shutdown failed", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
