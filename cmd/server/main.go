package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DukeRupert/samplebase/internal"
	"github.com/DukeRupert/samplebase/internal/billing"
	"github.com/DukeRupert/samplebase/internal/cache"
	"github.com/DukeRupert/samplebase/internal/email"
	"github.com/DukeRupert/samplebase/internal/handler"
	"github.com/DukeRupert/samplebase/internal/jobs"
	"github.com/DukeRupert/samplebase/internal/metrics"
	"github.com/DukeRupert/samplebase/internal/middleware"
	"github.com/DukeRupert/samplebase/internal/repository"
	"github.com/DukeRupert/samplebase/internal/service"
	"github.com/DukeRupert/samplebase/internal/storage"
	"github.com/DukeRupert/samplebase/internal/worker"
	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(ctx, db, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	store := repository.NewStore(db)

	// Redis is optional; without it the plan catalog reads through to postgres
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, plan cache will fall back to the database", "error", err)
		} else {
			logger.Info("Redis ready")
		}
	}
	catalog := cache.NewPlanCatalog(store, rdb, cfg.PlanCacheTTL, logger)

	// Sample file storage
	files, err := storage.New(storage.Config{
		Provider: cfg.StorageProvider,
		Local: storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		},
		R2: storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			Endpoint:        cfg.R2Endpoint,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// Initialize services
	stripeService := billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	planService := service.NewPlanService(store, catalog, stripeService, cfg.PriceTiers, logger)
	creditService := service.NewCreditService(store, files, service.CreditConfig{
		Pricing:        cfg.CreditPricing,
		Grants:         cfg.CreditGrants,
		DownloadURLTTL: cfg.DownloadURLTTL,
	}, logger)
	subscriptionService := service.NewSubscriptionService(store, stripeService, planService, logger)
	customerService := service.NewCustomerService(store, logger)
	eventLog := service.NewEventLog(store, logger)
	reconciler := service.NewReconciler(store, stripeService, planService, creditService, logger)

	// Background worker sends billing emails queued by the reconciler
	emailService, err := email.NewSMTPEmailService(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	}, cfg.BaseURL, logger)
	if err != nil {
		return fmt.Errorf("email service initialization failed: %w", err)
	}

	workerCfg := worker.DefaultConfig()
	workerCfg.Concurrency = cfg.WorkerConcurrency
	workerCfg.PollInterval = cfg.WorkerPollInterval
	workerCfg.JobTimeout = cfg.WorkerJobTimeout

	jobWorker, err := worker.New(store, workerCfg, logger)
	if err != nil {
		return fmt.Errorf("worker initialization failed: %w", err)
	}
	jobWorker.Register(jobs.NewBillingEmailHandler(store, emailService, logger))

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if cfg.WorkerEnabled {
		jobWorker.Start(workerCtx)
	} else {
		logger.Info("Worker disabled")
	}

	// Initialize middleware
	isSecure := !cfg.IsDevelopment()
	adminMw := middleware.NewAdminAuthMiddleware(cfg.AdminAPIToken, logger)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, logger)
	defer limiter.Stop()
	rateLimitMw := middleware.NewRateLimitMiddleware(limiter, logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	if cfg.AdminAPIToken == "" {
		logger.Warn("ADMIN_API_TOKEN is not set, admin API will reject every request")
	}
	if cfg.MetricsUsername == "" && cfg.MetricsPassword == "" {
		logger.Warn("Metrics endpoint is unprotected, set METRICS_USERNAME and METRICS_PASSWORD")
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	checks := map[string]handler.HealthCheck{
		"postgres": db.PingContext,
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	handler.NewHealthHandler(checks, logger).RegisterRoutes(mux)

	// Prometheus metrics
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Local sample files; R2 links point straight at the bucket
	if local, ok := files.(*storage.LocalStorage); ok {
		mux.Handle("GET /files/", http.StripPrefix("/files", local.Handler()))
	}

	// Stripe webhooks authenticate by signature, not admin token
	if cfg.StripeWebhookSecret != "" {
		handler.NewWebhookHandler(stripeService, eventLog, reconciler, logger).RegisterRoutes(mux)
	} else {
		logger.Warn("STRIPE_WEBHOOK_SECRET is not set, webhook endpoint disabled")
	}

	// Admin API
	requireAdmin := middleware.Stack(rateLimitMw.Limit, adminMw.RequireToken)
	handler.NewPlanHandler(planService, logger).RegisterRoutes(mux, requireAdmin)
	handler.NewBillingHandler(subscriptionService, logger).RegisterRoutes(mux, requireAdmin)
	handler.NewCreditHandler(creditService, logger).RegisterRoutes(mux, requireAdmin)
	handler.NewCustomerHandler(customerService, logger).RegisterRoutes(mux, requireAdmin)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handler.NotFoundResponse(w, r, logger)
	})

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           middleware.Stack(metrics.Middleware, loggingMw.Handler, securityMw.Handler)(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if cfg.WorkerEnabled {
		jobWorker.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
