package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dorahyong/buyma/internal/application/reconciliation"
	"github.com/dorahyong/buyma/internal/application/registration"
	"github.com/dorahyong/buyma/internal/domain/listing"
	"github.com/dorahyong/buyma/internal/domain/shared"
	"github.com/dorahyong/buyma/internal/infrastructure/buyma"
	"github.com/dorahyong/buyma/internal/infrastructure/cache"
	"github.com/dorahyong/buyma/internal/infrastructure/config"
	"github.com/dorahyong/buyma/internal/infrastructure/logger"
	"github.com/dorahyong/buyma/internal/infrastructure/persistence"
	"github.com/dorahyong/buyma/internal/infrastructure/scheduler"
	"github.com/dorahyong/buyma/internal/infrastructure/source"
	"github.com/dorahyong/buyma/internal/interfaces/http/handler"
	"github.com/dorahyong/buyma/internal/interfaces/http/middleware"
	"github.com/dorahyong/buyma/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting registration pipeline",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
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
	log.Info("Database connected successfully")

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	callLogRepo := persistence.NewGormCallLogRepository(db.DB)
	eventRepo := persistence.NewGormWebhookEventRepository(db.DB)

	// Marketplace client with the dual rolling-window quota limiter
	clientCfg := buyma.NewClientConfig(cfg.Buyma.AccessToken)
	if cfg.Buyma.BaseURL != "" {
		clientCfg.BaseURL = cfg.Buyma.BaseURL
	}
	if cfg.Buyma.Timeout > 0 {
		clientCfg.Timeout = cfg.Buyma.Timeout
	}
	if cfg.Buyma.GlobalHourlyQuota > 0 {
		clientCfg.GlobalHourlyQuota = cfg.Buyma.GlobalHourlyQuota
	}
	if cfg.Buyma.ProductDailyQuota > 0 {
		clientCfg.ProductDailyQuota = cfg.Buyma.ProductDailyQuota
	}
	if cfg.Buyma.MinCallInterval > 0 {
		clientCfg.MinCallInterval = cfg.Buyma.MinCallInterval
	}
	client, err := buyma.NewClient(clientCfg, log, callLogRepo)
	if err != nil {
		log.Fatal("Failed to create marketplace client", zap.Error(err))
	}
	seedQuota(client, callLogRepo, log)
	fixed := buyma.FixedValues{
		BuyingAreaID:     cfg.Buyma.Listing.BuyingAreaID,
		ShippingAreaID:   cfg.Buyma.Listing.ShippingAreaID,
		ThemeID:          cfg.Buyma.Listing.ThemeID,
		Duty:             cfg.Buyma.Listing.Duty,
		ShippingMethodID: cfg.Buyma.Listing.ShippingMethodID,
	}
	gateway := buyma.NewGateway(client, cfg.Registration.ListingLifetime, fixed)

	// Buying-source feed used by reconciliation
	feed, err := source.NewFeedClient(&source.FeedConfig{
		BaseURL:     cfg.Source.BaseURL,
		AccessToken: cfg.Source.AccessToken,
		Timeout:     cfg.Source.Timeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to create source feed client", zap.Error(err))
	}

	// Webhook deduplication store (redis, in-memory fallback)
	idemStore := cache.NewIdempotencyStore(cfg, log)
	defer func() {
		if err := idemStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	marginPolicy := marginPolicyFromConfig(&cfg.Margin)

	// Application services
	registrationService := registration.NewService(productRepo, gateway, marginPolicy, registration.Config{
		BatchSize:     cfg.Registration.BatchSize,
		EnforceMargin: cfg.Margin.Enforce,
		HaltOnQuota:   cfg.Buyma.HaltOnQuota,
	}, log)
	webhookService := registration.NewWebhookService(productRepo, eventRepo, idemStore, shared.IdempotencyConfig{
		Enabled: cfg.Idempotency.Enabled,
		TTL:     cfg.Idempotency.TTL,
	}, log)
	reconciliationService := reconciliation.NewService(productRepo, gateway, feed, feed, marginPolicy, reconciliation.Config{
		BatchSize:        cfg.Reconciliation.BatchSize,
		DeleteOnStockout: cfg.Reconciliation.DeleteOnStockout,
		PriceSyncEnabled: cfg.Reconciliation.PriceSyncEnabled,
	}, log)

	// Pipeline scheduler drives both loops
	schedulerCfg := scheduler.DefaultPipelineSchedulerConfig()
	schedulerCfg.Registration = scheduler.LoopConfig{
		Enabled:  cfg.Registration.Enabled,
		Interval: cfg.Registration.Interval,
	}
	schedulerCfg.Reconciliation = scheduler.LoopConfig{
		Enabled:  cfg.Reconciliation.Enabled,
		Interval: cfg.Reconciliation.Interval,
	}
	pipelineScheduler, err := scheduler.NewPipelineScheduler(schedulerCfg, registrationService, reconciliationService, log)
	if err != nil {
		log.Fatal("Failed to create pipeline scheduler", zap.Error(err))
	}
	if err := pipelineScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start pipeline scheduler", zap.Error(err))
	}
	log.Info("Pipeline scheduler started",
		zap.Bool("registration_enabled", cfg.Registration.Enabled),
		zap.Duration("registration_interval", cfg.Registration.Interval),
		zap.Bool("reconciliation_enabled", cfg.Reconciliation.Enabled),
		zap.Duration("reconciliation_interval", cfg.Reconciliation.Interval),
	)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Operator endpoints under /api/v1; the marketplace webhook keeps its
	// own stable path because the callback URL is configured once on the
	// marketplace side
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewProductHandler(productRepo)).
		Register(handler.NewPipelineHandler(pipelineScheduler, gateway, callLogRepo, eventRepo)).
		Register(handler.NewSystemHandler(db)).
		RegisterCallback(handler.NewWebhookHandler(webhookService, log)).
		Setup()

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

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := pipelineScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Pipeline scheduler shutdown failed", zap.Error(err))
	}

	log.Info("Shutdown complete")
}

// seedQuota rebuilds the limiter windows from the call log so a restart
// cannot double-spend the marketplace quotas.
func seedQuota(client *buyma.Client, callLogs listing.CallLogRepository, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	hourly, err := callLogs.CountSince(ctx, now.Add(-time.Hour))
	if err != nil {
		log.Warn("Failed to count recent calls, quota windows start empty", zap.Error(err))
		return
	}
	daily, err := callLogs.CountEndpointSince(ctx, buyma.ProductsEndpoint, now.Add(-24*time.Hour))
	if err != nil {
		log.Warn("Failed to count recent product calls, quota windows start empty", zap.Error(err))
		return
	}

	client.SeedQuota(int(hourly), int(daily))
	log.Info("Quota windows seeded from call log",
		zap.Int64("hourly_used", hourly),
		zap.Int64("daily_used", daily),
	)
}

func marginPolicyFromConfig(cfg *config.MarginConfig) listing.MarginPolicy {
	policy := listing.DefaultMarginPolicy()
	if cfg.ExchangeRateKRWPerJPY > 0 {
		policy.ExchangeRateKRWPerJPY = decimal.NewFromFloat(cfg.ExchangeRateKRWPerJPY)
	}
	if cfg.SalesFeeRate > 0 {
		policy.SalesFeeRate = decimal.NewFromFloat(cfg.SalesFeeRate)
	}
	if cfg.DefaultShippingFeeKRW > 0 {
		policy.DefaultShippingFeeKRW = decimal.NewFromFloat(cfg.DefaultShippingFeeKRW)
	}
	return policy
}
