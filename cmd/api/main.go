package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"github.com/casabook/casabook-api/internal/config"
	"github.com/casabook/casabook-api/internal/database"
	"github.com/casabook/casabook-api/internal/handlers"
	"github.com/casabook/casabook-api/internal/jobs"
	"github.com/casabook/casabook-api/internal/middleware"
	"github.com/casabook/casabook-api/internal/repository"
	"github.com/casabook/casabook-api/internal/services"
	"github.com/casabook/casabook-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Apply schema outside production; production migrates out-of-band
	if cfg.Environment != "production" {
		if err := database.Migrate(db); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			os.Exit(1)
		}
		logger.Info("Database schema up to date")
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services. Handlers share the same clock so request-time
	// defaults follow the engine's notion of now.
	clock := services.NewSystemClock()
	svcs := services.NewServices(repos, worker, cfg, clock)

	// Schedule the recurring-transaction due pass
	cronRunner := jobs.NewCronRunner(worker)
	if err := cronRunner.Schedule(cfg.RecurringCron, "recurring due pass", func(ctx context.Context) error {
		return svcs.Recurring.RunDuePass(ctx)
	}); err != nil {
		logger.Error("Failed to schedule recurring due pass", "error", err)
		os.Exit(1)
	}
	cronRunner.Start()
	logger.Info("Scheduled recurring due pass", "cron", cfg.RecurringCron)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, clock)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Stop the cron scheduler, then drain the worker
	cronRunner.Stop()
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", h.Health.Index)

		// Debts
		debts := v1.Group("/debts")
		{
			debts.GET("", h.Debt.Index)
			debts.POST("", h.Debt.Create)
			debts.GET("/:debt_id", h.Debt.Show)
			debts.GET("/:debt_id/schedule", h.Debt.Schedule)
			debts.GET("/:debt_id/payments", h.Debt.Payments)
			debts.POST("/:debt_id/payments", h.Debt.ApplyPayment)
			debts.POST("/:debt_id/recalculate", h.Debt.RecalculateBalance)
			debts.POST("/:debt_id/default", h.Debt.MarkDefaulted)
			debts.POST("/:debt_id/cancel", h.Debt.Cancel)
		}

		// Recurring rules
		rules := v1.Group("/recurring_rules")
		{
			rules.GET("", h.Recurring.Index)
			rules.POST("", h.Recurring.Create)
			rules.GET("/:rule_id", h.Recurring.Show)
			rules.GET("/:rule_id/executions", h.Recurring.Executions)
			rules.POST("/:rule_id/execute", h.Recurring.Execute)
			rules.POST("/:rule_id/pause", h.Recurring.Pause)
			rules.POST("/:rule_id/resume", h.Recurring.Resume)
			rules.POST("/:rule_id/cancel", h.Recurring.Cancel)
		}

		// Notifications
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", h.Notification.Index)
			notifications.POST("/mark_all_as_read", h.Notification.MarkAllAsRead)
		}

		// Background jobs
		v1.GET("/jobs/status", h.Job.Status)
	}

	return router
}
