package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	apppayables "github.com/contaspagar/backend/internal/application/payables"
	identityapp "github.com/contaspagar/backend/internal/application/identity"
	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/contaspagar/backend/internal/infrastructure/auth"
	"github.com/contaspagar/backend/internal/infrastructure/cache"
	"github.com/contaspagar/backend/internal/infrastructure/config"
	"github.com/contaspagar/backend/internal/infrastructure/event"
	"github.com/contaspagar/backend/internal/infrastructure/logger"
	"github.com/contaspagar/backend/internal/infrastructure/migration"
	"github.com/contaspagar/backend/internal/infrastructure/notifier"
	"github.com/contaspagar/backend/internal/infrastructure/persistence"
	"github.com/contaspagar/backend/internal/infrastructure/scheduler"
	"github.com/contaspagar/backend/internal/infrastructure/telemetry"
	"github.com/contaspagar/backend/internal/interfaces/http/handler"
	"github.com/contaspagar/backend/internal/interfaces/http/middleware"
	"github.com/contaspagar/backend/internal/interfaces/http/router"
	"github.com/contaspagar/backend/migrations"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	version = "1.0.0"

	// login and refresh attempts allowed per client IP
	loginRateLimit  = 10
	loginRateWindow = time.Minute

	outstandingCollectInterval = 5 * time.Minute
	shutdownTimeout            = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	ctx := context.Background()

	// The OTLP log bridge is created with a bootstrap logger and then teed
	// into the process logger.
	bootstrap := logger.New(cfg.Log)
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, bootstrap)
	if err != nil {
		bootstrap.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log := logger.New(cfg.Log, loggerProvider.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	defer func() {
		_ = log.Sync()
	}()
	defer func() {
		if err := loggerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down log exporter", zap.Error(err))
		}
	}()

	log.Info("Starting contas a pagar backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("time_zone", cfg.Payables.Location().String()),
	)

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if cfg.Telemetry.ProfilingEnabled {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry, cfg.Database.DBName), log).Register(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(ctx, db.DB, meterProvider, telemetry.DBMetricsConfig{
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Warn("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		defer dbMetrics.Stop()
	}

	if err := applyMigrations(db, log); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Redis backs the token blacklist and alert deduplication when configured
	redisClient, blacklist := newTokenBlacklist(cfg.Redis, log)
	if redisClient != nil {
		defer func() {
			_ = redisClient.Close()
		}()
	}
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = idempotencyStore.Close()
	}()

	// Repositories
	clock := payables.NewSystemClock(cfg.Payables.Location())
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	groupRepo := persistence.NewGormGroupRepository(db.DB)
	billingRepo := persistence.NewGormBillingRepository(db.DB)
	historyRepo := persistence.NewGormPaymentHistoryRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:    meterProvider.Meter("contaspagar.business"),
		Logger:   log,
		Provider: accountRepo,
		Clock:    clock,
	})
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}
	businessMetrics.StartPeriodicCollection(ctx, outstandingCollectInterval)
	defer businessMetrics.Stop()

	// Notification worker pool. Without an Evolution instance, payments still
	// succeed and report the confirmation as disabled.
	registry := prometheus.DefaultRegisterer
	schedulerMetrics := scheduler.NewMetrics(registry)

	var queue payables.NotificationQueue
	if cfg.Notifier.Enabled {
		evolution, err := notifier.NewEvolutionClient(cfg.Notifier)
		switch {
		case errors.Is(err, notifier.ErrNotConfigured):
			log.Warn("WhatsApp notifications enabled but Evolution API is not configured")
		case err != nil:
			log.Fatal("Failed to create Evolution API client", zap.Error(err))
		default:
			executor := scheduler.NewNotificationExecutor(evolution, businessMetrics, log)
			notificationScheduler, err := scheduler.NewScheduler(scheduler.SchedulerConfigFrom(cfg.Scheduler), executor, schedulerMetrics, log)
			if err != nil {
				log.Fatal("Invalid scheduler configuration", zap.Error(err))
			}
			if err := notificationScheduler.Start(ctx); err != nil {
				log.Fatal("Failed to start notification scheduler", zap.Error(err))
			}
			defer func() {
				if err := notificationScheduler.Stop(context.Background()); err != nil {
					log.Error("Error stopping notification scheduler", zap.Error(err))
				}
			}()
			queue = notificationScheduler
			log.Info("WhatsApp notifications enabled",
				zap.String("instance", cfg.Notifier.InstanceName),
				zap.Int("workers", cfg.Scheduler.Workers),
			)
		}
	}

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(apppayables.NewPaymentMetricsHandler(businessMetrics))
	if queue != nil {
		dedupe := shared.DefaultIdempotencyConfig()
		if cfg.Payables.AlertDedupeTTL > 0 {
			dedupe.TTL = cfg.Payables.AlertDedupeTTL
		}
		eventBus.Subscribe(event.NewIdempotentHandler(
			apppayables.NewDueAlertHandler(queue, businessMetrics, log),
			idempotencyStore,
			log,
			event.WithKeyFunc(apppayables.DueAlertKey),
			event.WithIdempotencyConfig(dedupe),
		))
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	paymentOpts := []apppayables.PaymentServiceOption{apppayables.WithPaymentMetrics(businessMetrics)}
	if queue != nil {
		paymentOpts = append(paymentOpts, apppayables.WithNotificationQueue(queue))
	}
	accountService := apppayables.NewAccountService(accountRepo, groupRepo, clock, log)
	groupService := apppayables.NewGroupService(groupRepo, accountRepo, log)
	billingService := apppayables.NewBillingService(billingRepo, log)
	paymentService := apppayables.NewPaymentService(accountRepo, historyRepo, eventBus, clock, log, paymentOpts...)
	statusService := apppayables.NewStatusService(accountRepo, eventBus, clock, businessMetrics, log)
	dashboardService := apppayables.NewDashboardService(accountRepo, billingRepo, clock, log)

	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, identityapp.DefaultAuthServiceConfig(), log)
	userService := identityapp.NewUserService(userRepo, blacklist, jwtService, log)

	// Daily status scan
	hour, minute, err := scheduler.ParseCronSchedule(cfg.Scheduler.StatusScanSchedule)
	if err != nil {
		log.Fatal("Invalid status scan schedule", zap.Error(err))
	}
	triggerConfig := scheduler.DefaultStatusScanTriggerConfig()
	triggerConfig.Enabled = cfg.Scheduler.Enabled
	triggerConfig.CronHour = hour
	triggerConfig.CronMinute = minute
	triggerConfig.Location = cfg.Payables.Location()
	statusTrigger := scheduler.NewStatusScanTrigger(triggerConfig, statusService, schedulerMetrics, log)
	if err := statusTrigger.Start(ctx); err != nil {
		log.Fatal("Failed to start status scan trigger", zap.Error(err))
	}
	defer func() {
		if err := statusTrigger.Stop(context.Background()); err != nil {
			log.Error("Error stopping status scan trigger", zap.Error(err))
		}
	}()

	// HTTP handlers
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version)
	systemHandler.AddCheck("database", func(ctx context.Context) error {
		sqlDB, err := db.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if redisClient != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		User:      handler.NewUserHandler(userService),
		Account:   handler.NewAccountHandler(accountService, paymentService, statusService),
		Group:     handler.NewGroupHandler(groupService),
		Billing:   handler.NewBillingHandler(billingService),
		History:   handler.NewHistoryHandler(paymentService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		System:    systemHandler,
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID before anything logs
	// 2. Recovery and request logging
	// 3. Tracing, metrics and profiling labels
	// 4. Security headers, CORS and body limit
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	tracingConfig := middleware.DefaultTracingConfig()
	tracingConfig.ServiceName = cfg.Telemetry.ServiceName
	tracingConfig.Enabled = cfg.Telemetry.Enabled
	engine.Use(middleware.TracingWithConfig(tracingConfig))
	engine.Use(middleware.HTTPMetrics(meterProvider, log))
	profilingConfig := middleware.DefaultProfilingConfig()
	profilingConfig.Enabled = cfg.Telemetry.ProfilingEnabled
	engine.Use(middleware.ProfilingWithConfig(profilingConfig))

	engine.Use(middleware.Secure())
	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	var metricsHandler http.Handler
	if cfg.HTTP.MetricsEnabled {
		metricsHandler = promhttp.Handler()
	}
	router.MountOperational(engine, systemHandler, metricsHandler)

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = blacklist
	jwtConfig.Logger = log

	loginLimiter := middleware.NewRateLimiter(loginRateLimit, loginRateWindow)
	defer loginLimiter.Stop()

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Use(middleware.SpanEnricher()).
		Register(router.APIRoutes(handlers, router.RouteOptions{
			Authenticated: middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
			Login:         []gin.HandlerFunc{middleware.RateLimit(loginLimiter)},
		})...).
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
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// applyMigrations brings the schema to the latest embedded version
func applyMigrations(db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	// Close would also close sqlDB, which the server still needs.
	return m.Up()
}

// newTokenBlacklist prefers Redis so revoked tokens survive restarts and are
// shared between instances. The returned client is nil on the in-memory path.
func newTokenBlacklist(cfg config.RedisConfig, log *zap.Logger) (*redis.Client, auth.TokenBlacklist) {
	if cfg.URL == "" && cfg.Host == "" {
		log.Info("Redis not configured, using in-memory token blacklist")
		return nil, auth.NewInMemoryTokenBlacklist()
	}
	client, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory token blacklist", zap.Error(err))
		return nil, auth.NewInMemoryTokenBlacklist()
	}
	return client, auth.NewRedisTokenBlacklist(client)
}
