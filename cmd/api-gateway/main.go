package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/edu-erp-api/api/swagger"
	"github.com/noah-isme/edu-erp-api/internal/handler"
	internalmiddleware "github.com/noah-isme/edu-erp-api/internal/middleware"
	"github.com/noah-isme/edu-erp-api/internal/models"
	"github.com/noah-isme/edu-erp-api/internal/repository"
	"github.com/noah-isme/edu-erp-api/internal/seed"
	"github.com/noah-isme/edu-erp-api/internal/service"
	"github.com/noah-isme/edu-erp-api/pkg/cache"
	"github.com/noah-isme/edu-erp-api/pkg/config"
	"github.com/noah-isme/edu-erp-api/pkg/database"
	"github.com/noah-isme/edu-erp-api/pkg/jobs"
	"github.com/noah-isme/edu-erp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edu-erp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edu-erp-api/pkg/middleware/requestid"
	"github.com/noah-isme/edu-erp-api/pkg/storage"
)

type auditStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	ListByAction(ctx context.Context, action string, limit int) ([]models.AuditLog, error)
}

type importStatusStore interface {
	Save(ctx context.Context, job *models.ImportJob) error
	Get(ctx context.Context, id string) (*models.ImportJob, error)
}

// sweepUploads removes stale uploads at start-up and then every half TTL until ctx ends.
func sweepUploads(ctx context.Context, imports *service.ImportService, ttl time.Duration, logr *zap.Logger) {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := imports.Sweep(ctx, ttl); err != nil {
			logr.Warn("upload sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// @title Edu ERP CRM API
// @version 1.0.0
// @description Lead lifecycle, pipeline dashboards and bulk operations for admissions counselling
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	readiness := map[string]handler.ReadinessCheck{}

	directoryRepo := repository.NewDirectoryRepository()
	leadRepo := repository.NewLeadRepository(repository.LeadRepositoryOptions{DefaultOwnerID: cfg.CRM.DefaultOwnerID})

	seedValue := cfg.Seed.Value
	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}
	dataset := seed.Generate(seed.Options{Leads: cfg.Seed.Leads, Seed: seedValue})
	seed.Load(ctx, dataset, leadRepo, directoryRepo)
	logr.Info("seed data loaded",
		zap.Int("leads", len(dataset.Leads)),
		zap.Int("users", len(dataset.Users)),
		zap.Int64("seed", seedValue),
	)
	metricsSvc.RegisterLeadGauge(func() int { return leadRepo.Count(context.Background()) })

	validate := service.NewLeadValidator(validator.New())
	leadSvc := service.NewLeadService(leadRepo, directoryRepo, validate, metricsSvc, logr, service.LeadServiceConfig{Location: cfg.CRM.Location})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Leads:  leadRepo,
		Logger: logr,
		Config: service.DashboardServiceConfig{Location: cfg.CRM.Location},
	})
	reportSvc := service.NewReportService(leadRepo, directoryRepo, logr)
	directorySvc := service.NewDirectoryService(directoryRepo, logr)

	var auditSink auditStore
	if cfg.Audit.DatabaseEnabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect audit database", zap.Error(err))
		}
		defer db.Close()
		if err := database.EnsureAuditSchema(ctx, db); err != nil {
			logr.Fatal("failed to prepare audit schema", zap.Error(err))
		}
		auditSink = repository.NewAuditRepository(db)
		readiness["postgres"] = db.PingContext
	} else {
		auditSink = service.NewLogAuditSink(logr, 0)
	}

	handlers := handler.Handlers{
		Leads:     handler.NewLeadHandler(leadSvc),
		Pipeline:  handler.NewPipelineHandler(dashboardSvc),
		Reports:   handler.NewReportHandler(reportSvc),
		Directory: handler.NewDirectoryHandler(directorySvc),
		Audit:     handler.NewAuditHandler(auditSink),
	}

	if cfg.Imports.Enabled {
		var statusStore importStatusStore
		if cfg.Redis.Enabled {
			client, err := cache.NewRedis(ctx, cfg.Redis)
			if err != nil {
				logr.Fatal("failed to connect redis", zap.Error(err))
			}
			cacheRepo := repository.NewCacheRepository(client, "edu-erp:")
			defer cacheRepo.Close() //nolint:errcheck
			statusStore = repository.NewRedisImportJobRepository(cacheRepo, cfg.Imports.StatusTTL)
			readiness["redis"] = cache.Ping(client)
		} else {
			statusStore = repository.NewMemoryImportJobRepository()
		}

		uploads, err := storage.NewLocalStorage(cfg.Imports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare upload storage", zap.Error(err))
		}
		importCfg := service.ImportServiceConfig{
			MaxFileSize:     cfg.Imports.MaxFileSize,
			ProcessingDelay: cfg.Imports.ProcessingDelay,
		}
		worker := service.NewImportWorker(statusStore, uploads, leadSvc, importCfg, logr)
		importQueue := jobs.NewQueue("lead_imports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Imports.Workers,
			MaxRetries: cfg.Imports.Retries,
			RetryDelay: time.Second,
			OnGiveUp:   worker.GiveUp,
			Logger:     logr,
		})
		importQueue.Start(ctx)
		defer importQueue.Stop()
		metricsSvc.RegisterQueue("lead_imports", importQueue.Stats)

		importSvc := service.NewImportService(statusStore, uploads, importQueue, importCfg, logr)
		handlers.Imports = handler.NewImportHandler(importSvc)
		go sweepUploads(ctx, importSvc, cfg.Imports.UploadTTL, logr)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(internalmiddleware.Actor())
	r.Use(logger.GinMiddleware(logr, func(c *gin.Context) []zap.Field {
		if actor := internalmiddleware.ActorID(c); actor != "" {
			return []zap.Field{zap.String("actor", actor)}
		}
		return nil
	}))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/health", "/ready", "/metrics"))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, readiness)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handlers, auditSink, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", cfg.CRM.TimezoneName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
