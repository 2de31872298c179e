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
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/vanledger/vanledger-api/internal/config"
	"github.com/vanledger/vanledger-api/internal/database"
	"github.com/vanledger/vanledger-api/internal/handlers"
	"github.com/vanledger/vanledger-api/internal/jobs"
	"github.com/vanledger/vanledger-api/internal/locks"
	"github.com/vanledger/vanledger-api/internal/middleware"
	"github.com/vanledger/vanledger-api/internal/repository"
	"github.com/vanledger/vanledger-api/internal/services"
	"github.com/vanledger/vanledger-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title VanLedger API
// @version 1.0
// @description Ledger aggregation and settlement windowing engine for van-sales ERP backends

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
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

	// Connect to Redis for settlement locks
	rdb, err := locks.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	locker := locks.NewRedisLocker(rdb)
	logger.Info("Connected to Redis")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, locker, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

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

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
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
		// Redirect root to swagger
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})

		// Swagger documentation
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/accounts", h.Account.Create)
				admin.POST("/accounts/recalculate_balances", h.Account.RecalculateBalances)
				admin.POST("/settlements/merge_duplicates", h.Settlement.MergeDuplicates)
				admin.POST("/settlements/:id/approve", h.Settlement.Approve)
				admin.POST("/transactions/:id/reverse", h.Transaction.Reverse)
			}

			// Supervisor + admin routes (review and reporting)
			supervisor := protected.Group("")
			supervisor.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleSupervisor))
			{
				supervisor.POST("/settlements/:id/dispute", h.Settlement.Dispute)
				supervisor.POST("/settlements/:id/reopen", h.Settlement.Reopen)
				supervisor.GET("/reports/trial_balance_xlsx", h.Report.TrialBalanceXLSX)
				supervisor.GET("/reports/settlements_xlsx", h.Report.SettlementsXLSX)
				supervisor.GET("/audits", h.Audit.Index)
				supervisor.GET("/audits/:entity/:id", h.Audit.History)
				supervisor.GET("/jobs/status", h.Job.Status)
			}

			// All authenticated users
			protected.GET("/accounts", h.Account.Index)
			protected.GET("/accounts/:id", h.Account.Show)

			protected.GET("/partners", h.Partner.Index)
			protected.POST("/partners", h.Partner.Create)
			protected.GET("/partners/:id", h.Partner.Show)
			protected.PUT("/partners/:id", h.Partner.Update)
			protected.GET("/partners/:id/balance", h.Partner.Balance)

			protected.POST("/transactions", h.Transaction.Create)
			protected.POST("/transactions/sync", h.Transaction.Sync)
			protected.GET("/transactions/:id", h.Transaction.Show)

			// Static route first so "merge_duplicates" is not matched as :id
			protected.GET("/settlements", h.Settlement.Index)
			protected.POST("/settlements", h.Settlement.Create)
			protected.GET("/settlements/:id", h.Settlement.Show)
			protected.DELETE("/settlements/:id", h.Settlement.Delete)
			protected.POST("/settlements/:id/submit", h.Settlement.Submit)
			protected.GET("/settlements/:id/report.pdf", h.Settlement.ReportPDF)
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	// Recompute account balances from the journal
	recomputeEvery := time.Duration(cfg.RecomputeIntervalMinutes) * time.Minute
	worker.ScheduleEvery(recomputeEvery, func(ctx context.Context) error {
		logger.Info("[Job] Recalculating account balances...")
		result, err := svcs.Ledger.RecalculateAccountBalances(ctx)
		if err != nil {
			return err
		}
		logger.Info("[Job] Account balances recalculated",
			"scanned", result.AccountsScanned, "updated", result.AccountsUpdated)
		return nil
	})

	// Scan for duplicate settlement periods
	scanEvery := time.Duration(cfg.DuplicateScanHours) * time.Hour
	worker.ScheduleEvery(scanEvery, func(ctx context.Context) error {
		logger.Info("[Job] Scanning for duplicate settlements...")
		results, err := svcs.Merge.MergeAll(ctx, "scheduler")
		if err != nil {
			return err
		}
		if len(results) > 0 {
			logger.Warn("[Job] Duplicate settlements repaired", "vehicles", len(results))
		}
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
