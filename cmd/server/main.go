package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	financeapp "github.com/erp/numbering/internal/application/finance"
	identityapp "github.com/erp/numbering/internal/application/identity"
	numberingapp "github.com/erp/numbering/internal/application/numbering"
	"github.com/erp/numbering/internal/infrastructure/auth"
	"github.com/erp/numbering/internal/infrastructure/cache"
	"github.com/erp/numbering/internal/infrastructure/config"
	"github.com/erp/numbering/internal/infrastructure/logger"
	"github.com/erp/numbering/internal/infrastructure/persistence"
	"github.com/erp/numbering/internal/infrastructure/telemetry"
	"github.com/erp/numbering/internal/interfaces/http/handler"
	"github.com/erp/numbering/internal/interfaces/http/middleware"
	"github.com/erp/numbering/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			Voucher Numbering API
//	@version		1.0
//	@description	Sequential voucher numbering service: per-tenant format rules, atomic sequence allocation and voucher document workflow.

//	@contact.name	API Support
//	@contact.url	https://github.com/erp/numbering

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
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

	log.Info("Starting voucher numbering service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing (no-op when disabled in config)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Continuous profiling (no-op when disabled)
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.App.Name,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileCPU:        true,
		ProfileAllocSpace: true,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	// With both tracing and profiling up, link profiles to spans
	if tracerProvider.IsEnabled() && profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Database query tracing (otelgorm)
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Initialize repositories
	rulesRepo := persistence.NewGormFormatRulesRepository(db.DB)
	sequenceRepo := persistence.NewGormSequenceRepository(db.DB)
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	voucherRepo := persistence.NewGormVoucherRecordRepository(db.DB)

	// Rules cache (in-memory or Redis per config)
	cacheFactory := cache.NewRulesCacheFactory(cfg.Numbering, cfg.Redis, cache.WithLogger(log))
	rulesCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to create rules cache", zap.Error(err))
	}

	// Initialize application services
	settingsService := numberingapp.NewSettingsService(rulesRepo, tenantRepo, log,
		numberingapp.WithRulesCache(rulesCache, cfg.Numbering.CacheTTL))
	previewService := numberingapp.NewPreviewService(settingsService)
	allocationService := numberingapp.NewAllocationService(settingsService, sequenceRepo, log)

	allocationMode := financeapp.ParseAllocationMode(cfg.Numbering.AllocationMode)
	voucherService := financeapp.NewVoucherRecordService(db.DB, voucherRepo, allocationService, allocationMode, log)
	log.Info("Voucher allocation mode configured", zap.String("mode", string(allocationMode)))

	tenantService := identityapp.NewTenantService(tenantRepo, settingsService, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	numberingHandler := handler.NewNumberingHandler(settingsService, previewService, allocationService)
	voucherHandler := handler.NewVoucherHandler(voucherService)
	tenantHandler := handler.NewTenantHandler(tenantService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - OpenTelemetry spans (when enabled)
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning and authentication)
	engine.GET("/health", healthHandler(db))

	// JWT authentication for API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Tenant resolution for tenant-scoped routes. Tenant administration
	// and system endpoints are platform-level and skip it.
	engine.Use(middleware.TenantMiddlewareWithConfig(middleware.TenantMiddlewareConfig{
		SkipPaths: []string{
			"/health",
			"/api/v1/ping",
			"/api/v1/system",
			"/api/v1/tenants",
		},
		Logger: log,
	}))

	// Spans now carry the resolved tenant and user
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingAttributeInjector())
	}

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Numbering domain (format rules, previews, allocation, counters)
	numberingRoutes := router.NewDomainGroup("numbering", "/numbering")
	numberingRoutes.GET("/rules", numberingHandler.ListRules)
	numberingRoutes.GET("/rules/:type", numberingHandler.GetRules)
	numberingRoutes.PUT("/rules/:type", numberingHandler.UpdateRules)
	numberingRoutes.GET("/preview/:type", numberingHandler.Preview)
	numberingRoutes.POST("/preview/:type", numberingHandler.PreviewWithRules)
	numberingRoutes.POST("/allocate/:type", numberingHandler.Allocate)
	numberingRoutes.GET("/sequences", numberingHandler.ListSequences)

	// Voucher document workflow
	voucherRoutes := router.NewDomainGroup("vouchers", "/vouchers")
	voucherRoutes.POST("", voucherHandler.CreateVoucher)
	voucherRoutes.GET("", voucherHandler.ListVouchers)
	voucherRoutes.GET("/:id", voucherHandler.GetVoucher)
	voucherRoutes.POST("/:id/issue", voucherHandler.IssueVoucher)
	voucherRoutes.POST("/:id/cancel", voucherHandler.CancelVoucher)

	// Tenant provisioning and lifecycle
	tenantRoutes := router.NewDomainGroup("tenants", "/tenants")
	tenantRoutes.POST("", tenantHandler.Create)
	tenantRoutes.GET("", tenantHandler.List)
	tenantRoutes.GET("/:id", tenantHandler.Get)
	tenantRoutes.POST("/:id/suspend", tenantHandler.Suspend)
	tenantRoutes.POST("/:id/activate", tenantHandler.Activate)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(numberingRoutes).
		Register(voucherRoutes).
		Register(tenantRoutes).
		Register(systemRoutes)
	r.Setup()

	// Simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
