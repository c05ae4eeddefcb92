package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	analyticsapp "github.com/shopalytics/backend/internal/application/analytics"
	identityapp "github.com/shopalytics/backend/internal/application/identity"
	ingestapp "github.com/shopalytics/backend/internal/application/ingest"
	infraauth "github.com/shopalytics/backend/internal/infrastructure/auth"
	"github.com/shopalytics/backend/internal/infrastructure/cache"
	"github.com/shopalytics/backend/internal/infrastructure/config"
	"github.com/shopalytics/backend/internal/infrastructure/logger"
	"github.com/shopalytics/backend/internal/infrastructure/persistence"
	"github.com/shopalytics/backend/internal/infrastructure/storage"
	"github.com/shopalytics/backend/internal/infrastructure/telemetry"
	"github.com/shopalytics/backend/internal/interfaces/http/handler"
	"github.com/shopalytics/backend/internal/interfaces/http/middleware"
	"github.com/shopalytics/backend/internal/interfaces/http/router"

	_ "github.com/shopalytics/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Shopalytics API
//	@version		1.0
//	@description	Multi-tenant Shopify analytics backend: webhook ingestion, order pipeline and dashboard aggregation.

//	@contact.name	API Support
//	@contact.url	https://github.com/shopalytics/backend

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

	log.Info("Starting Shopalytics Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing before anything that creates spans
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

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

	// Register database tracing when telemetry is on
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:         "postgresql",
			WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Webhook dedupe store. The factory tries Redis first and, unless
	// dedupe_require_redis is set, degrades to an in-process store.
	dedupeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.Webhook.DedupeRequireRedis),
	)
	dedupeStore, err := dedupeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to initialize webhook dedupe store", zap.Error(err))
	}
	defer func() {
		if err := dedupeStore.Close(); err != nil {
			log.Error("Error closing dedupe store", zap.Error(err))
		}
	}()

	// Shared Redis client for the token blacklist and the dashboard
	// response cache, with in-process fallbacks when Redis is
	// unreachable at startup.
	var (
		tokenBlacklist infraauth.TokenBlacklist = infraauth.NewInMemoryTokenBlacklist()
		dashCache      cache.DashboardCache     = cache.NewNoopDashboardCache()
	)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := pingRedis(redisClient); err != nil {
		log.Warn("Redis unavailable, using in-process fallbacks", zap.Error(err))
	} else {
		tokenBlacklist = infraauth.NewRedisTokenBlacklistWithClient(redisClient)
		dashCache = cache.NewRedisDashboardCache(redisClient, log)
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		log.Info("Redis connected successfully")
	}

	// Webhook payload archive (S3 compatible). Optional, archival is best
	// effort and never blocks ingestion.
	var archiver storage.Archiver = storage.NewNoopArchiver()
	if cfg.Archive.Enabled {
		s3Archiver, err := storage.NewS3Archiver(&cfg.Archive, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize payload archive", zap.Error(err))
		}
		bucketCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s3Archiver.EnsureBucket(bucketCtx); err != nil {
			log.Warn("Failed to ensure archive bucket", zap.Error(err))
		}
		cancel()
		archiver = s3Archiver
		log.Info("Payload archive enabled", zap.String("bucket", s3Archiver.GetBucket()))
	}

	// Initialize repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	membershipRepo := persistence.NewGormMembershipRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	eventRepo := persistence.NewGormEventRepository(db.DB)

	// Initialize application services
	jwtService := infraauth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, membershipRepo, tenantRepo, jwtService, tokenBlacklist, log)
	tenantService := identityapp.NewTenantService(tenantRepo, userRepo, membershipRepo, log)
	webhookService := ingestapp.NewWebhookService(
		tenantRepo, customerRepo, productRepo, orderRepo, eventRepo,
		dedupeStore, archiver, dashCache,
		ingestapp.WebhookConfig{
			Secret:         cfg.Webhook.Secret,
			AllowUnsigned:  cfg.Webhook.AllowUnsigned,
			LenientNumbers: cfg.Webhook.LenientNumbers,
			DedupeEnabled:  cfg.Webhook.DedupeEnabled,
			DedupeTTL:      cfg.Webhook.DedupeTTL,
		}, log)
	dashboardService := analyticsapp.NewDashboardService(
		customerRepo, productRepo, orderRepo, eventRepo, dashCache,
		analyticsapp.DashboardConfig{
			RecentOrdersLimit: cfg.Dashboard.RecentOrdersLimit,
			TopCustomersLimit: cfg.Dashboard.TopCustomersLimit,
			RecentEventsLimit: cfg.Dashboard.RecentEventsLimit,
			CacheTTL:          cfg.Dashboard.CacheTTL,
		}, log)
	backfillService := ingestapp.NewBackfillService(orderRepo, productRepo, log)

	if cfg.Webhook.Secret == "" && !cfg.Webhook.AllowUnsigned {
		log.Warn("No webhook secret configured, all signed deliveries will be rejected")
	}

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	tenantHandler := handler.NewTenantHandler(tenantService, backfillService)
	dashboardHandler := handler.NewDashboardHandler(tenantService, dashboardService)
	webhookHandler := handler.NewWebhookHandler(webhookService)
	systemHandler := handler.NewSystemHandler(db.DB)

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

	// Middleware stack, ordered: request ID, panic recovery, request
	// logging, tracing, security headers, CORS, body limit, rate limit
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
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Swagger documentation endpoint
	if cfg.Swagger.Enabled {
		swaggerGuard := middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, middleware.JWTAuthMiddleware(jwtService))
		engine.GET("/swagger/*any", swaggerGuard, ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// JWT authentication on API routes. Tokens identify a user only,
	// tenant access is checked per request against memberships.
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/api/v1/health",
			"/api/v1/auth/register",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		SkipPathPrefixes: []string{
			"/api/v1/webhooks",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Webhook ingestion. Shopify calls these directly, authentication is
	// the HMAC signature, not a bearer token. The tighter webhook body
	// limit overrides the global one.
	webhookRoutes := router.NewDomainGroup("webhooks", "/webhooks")
	webhookRoutes.POST("/shopify", middleware.BodyLimit(cfg.Webhook.MaxBodySize), webhookHandler.Receive)

	// Identity: registration, login, session management
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.RefreshToken)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.GetCurrentUser)
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authRoutes.Use(middleware.AuthRateLimit(authLimiter))
		log.Info("Auth rate limiting enabled",
			zap.Int("requests", cfg.HTTP.AuthRateLimitRequests),
			zap.Duration("window", cfg.HTTP.AuthRateLimitWindow),
		)
	}

	// Tenants: onboarding, membership, dashboard, backfill
	tenantRoutes := router.NewDomainGroup("tenants", "/tenants")
	tenantRoutes.POST("", tenantHandler.Create)
	tenantRoutes.GET("", tenantHandler.List)
	tenantRoutes.POST("/:id/link", tenantHandler.LinkUser)
	tenantRoutes.GET("/:id/dashboard", dashboardHandler.GetDashboard)
	tenantRoutes.POST("/:id/products/backfill", tenantHandler.BackfillProducts)

	// System
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(webhookRoutes).
		Register(authRoutes).
		Register(tenantRoutes).
		Register(systemRoutes)

	r.Setup()

	// Versioned health alias for load balancers probing under the API
	// prefix
	engine.GET("/api/v1/health", systemHandler.Health)

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

func pingRedis(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}
