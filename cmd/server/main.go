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
	appbilling "github.com/tejit/billing/internal/application/billing"
	appingest "github.com/tejit/billing/internal/application/ingest"
	"github.com/tejit/billing/internal/domain/ingest"
	"github.com/tejit/billing/internal/infrastructure/config"
	"github.com/tejit/billing/internal/infrastructure/logger"
	"github.com/tejit/billing/internal/infrastructure/persistence"
	"github.com/tejit/billing/internal/infrastructure/source"
	"github.com/tejit/billing/internal/interfaces/http/handler"
	"github.com/tejit/billing/internal/interfaces/http/middleware"
	"github.com/tejit/billing/internal/interfaces/http/router"
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
		_ = logger.Sync(log)
	}()

	log.Info("Starting billing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

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

	// Repositories
	clientRepo := persistence.NewGormClientRepository(db.DB)
	jobRepo := persistence.NewGormImportJobRepository(db.DB)
	recordRepo := persistence.NewGormUsageRecordRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB, cfg.Invoice.NumberPrefix)

	// Usage file source store
	opener, err := newSourceOpener(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize source store", zap.Error(err))
	}
	log.Info("Source store ready", zap.String("kind", cfg.Source.Kind))

	// Application services
	runner := appingest.NewJobRunner(jobRepo, recordRepo, opener, appingest.RunnerConfig{
		BatchSize:       cfg.Ingest.BatchSize,
		FlushRetryDelay: cfg.Ingest.FlushRetryDelay,
		StallTimeout:    cfg.Ingest.StallTimeout,
		MaxErrorSamples: cfg.Ingest.MaxErrorSamples,
	}, log)
	importService := appingest.NewImportService(jobRepo, clientRepo, runner, log)
	invoiceService := appbilling.NewInvoiceService(invoiceRepo, clientRepo, appbilling.InvoiceServiceConfig{
		TaxRatePercent: decimal.NewFromFloat(cfg.Invoice.TaxRatePercent),
		DueInDays:      cfg.Invoice.DueInDays,
	}, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORS())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	systemHandler := handler.NewSystemHandler(db)

	// Health check endpoint outside API versioning
	engine.GET("/healthz", systemHandler.Healthz)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewImportHandler(importService)).
		Register(handler.NewInvoiceHandler(invoiceService)).
		Register(systemHandler).
		Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

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

// newSourceOpener builds the opener configured under [source].
func newSourceOpener(cfg *config.Config, log *zap.Logger) (ingest.SourceOpener, error) {
	if cfg.Source.Kind == "s3" {
		return source.NewS3Opener(&cfg.Source, source.WithLogger(log))
	}
	return source.NewLocalOpener(cfg.Source.LocalDir), nil
}
