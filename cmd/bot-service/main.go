package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/oktel/attendance-report/api/swagger"
	"github.com/oktel/attendance-report/internal/handler"
	internalmiddleware "github.com/oktel/attendance-report/internal/middleware"
	"github.com/oktel/attendance-report/internal/models"
	"github.com/oktel/attendance-report/internal/repository"
	"github.com/oktel/attendance-report/internal/service"
	"github.com/oktel/attendance-report/pkg/cache"
	"github.com/oktel/attendance-report/pkg/config"
	"github.com/oktel/attendance-report/pkg/database"
	"github.com/oktel/attendance-report/pkg/export"
	"github.com/oktel/attendance-report/pkg/jobs"
	"github.com/oktel/attendance-report/pkg/logger"
	corsmiddleware "github.com/oktel/attendance-report/pkg/middleware/cors"
	reqidmiddleware "github.com/oktel/attendance-report/pkg/middleware/requestid"
	"github.com/oktel/attendance-report/pkg/storage"
)

// @title Attendance Bot Service API
// @version 1.0.0
// @description Attendance stats, per-user reports, report exports and file uploads.
// @BasePath /api/v4
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg, "bot-service")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService("attendance_bot")

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, report cache disabled", zap.Error(err))
		redisClient = nil
	}
	var cacheRepo *repository.CacheRepository
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo = repository.NewCacheRepository(redisClient, "attendance")
	}
	var cacheStore service.CacheRepository
	if cacheRepo != nil {
		cacheStore = cacheRepo
	}
	cacheSvc := service.NewCacheService(cacheStore, metrics, cfg.Reports.CacheTTL, logr, cacheRepo != nil)

	location, err := time.LoadLocation(cfg.Reports.TimeZone)
	if err != nil {
		logr.Warn("unknown report time zone, using UTC", zap.String("tz", cfg.Reports.TimeZone), zap.Error(err))
		location = time.UTC
	}

	validate := validator.New()
	attendanceRepo := repository.NewAttendanceRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	fileRepo := repository.NewFileRepository(db)
	exportRepo := repository.NewExportJobRepository(db)

	reportSvc := service.NewReportService(attendanceRepo, leaveRepo, cacheSvc, validate, logr, service.ReportServiceConfig{
		CacheTTL:     cfg.Reports.CacheTTL,
		Location:     location,
		MaxRangeDays: cfg.Reports.MaxRangeDays,
	})
	attendanceSvc := service.NewAttendanceService(attendanceRepo, leaveRepo, reportSvc, validate, metrics, logr, service.AttendanceServiceConfig{
		Location: location,
	})
	authSvc := service.NewAuthService(service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.Expiration,
	})

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Fatal("failed to init upload storage", zap.Error(err))
	}
	fileSvc := service.NewFileService(fileRepo, uploadStore, validate, metrics, logr, service.FileServiceConfig{
		MaxFileSize:  cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
	})

	var exportHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		generator := service.NewExportGenerator(reportSvc, exportStore, signer, service.ExportGeneratorConfig{APIPrefix: "/api"}, logr,
			export.NewCSVExporter(), export.NewPDFExporter())
		worker := service.NewExportWorker(exportRepo, generator, metrics, logr)

		var exportSvc *service.ExportService
		queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
			OnExhausted: func(job jobs.Job, cause error) {
				exportSvc.HandleExhausted(job, cause)
			},
		})
		exportSvc = service.NewExportService(exportRepo, reportSvc, queue, generator, metrics, logr, service.ExportServiceConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
		})

		queue.Start(ctx)
		defer queue.Stop()
		exportSvc.RecoverPendingJobs(ctx)
		exportSvc.StartCleanup(ctx)
		exportHandler = handler.NewExportHandler(exportSvc, logr)
	}

	checks := map[string]handler.Pinger{"database": handler.PingFunc(db.PingContext)}
	if cacheRepo != nil {
		checks["redis"] = cacheRepo
	}
	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	attendanceHandler := handler.NewAttendanceHandler(reportSvc)
	eventHandler := handler.NewAttendanceEventHandler(attendanceSvc)
	fileHandler := handler.NewFileHandler(fileSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/healthz", "/readyz", "/metrics"))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/healthz", metricsHandler.Health)
	r.GET("/readyz", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// bot-internal API the chat server proxies to; it forwards the caller's
	// session token when it has one
	internal := r.Group("/api", internalmiddleware.OptionalJWT(authSvc))
	internal.GET("/attendance/stats", attendanceHandler.Stats)
	internal.GET("/attendance/report", attendanceHandler.Report)
	if exportHandler != nil {
		internal.GET("/attendance/exports/:token", exportHandler.DownloadExport)
	}

	secured := r.Group(cfg.APIPrefix, internalmiddleware.JWT(authSvc))
	secured.GET("/bot-service/attendance/stats", attendanceHandler.Stats)
	secured.GET("/bot-service/attendance/report", attendanceHandler.Report)
	secured.DELETE("/bot-service/attendance/cache",
		internalmiddleware.RequireRoles(models.RoleSystemAdmin, models.RoleTeamAdmin),
		attendanceHandler.InvalidateCache)
	secured.POST("/bot-service/attendance/check-in", eventHandler.CheckIn)
	secured.POST("/bot-service/attendance/break/start", eventHandler.StartBreak)
	secured.POST("/bot-service/attendance/break/end", eventHandler.EndBreak)
	secured.POST("/bot-service/attendance/check-out", eventHandler.CheckOut)
	secured.POST("/bot-service/attendance/leave-requests", eventHandler.CreateLeave)
	approvers := secured.Group("/bot-service/attendance/leave-requests/:id",
		internalmiddleware.RequireRoles(models.RoleSystemAdmin, models.RoleTeamAdmin))
	approvers.POST("/approve", eventHandler.ApproveLeave)
	approvers.POST("/reject", eventHandler.RejectLeave)
	if exportHandler != nil {
		secured.POST("/attendance/report/exports", exportHandler.CreateExport)
		secured.GET("/attendance/report/exports/:id", exportHandler.ExportStatus)
	}
	secured.POST("/files", fileHandler.Upload)
	secured.GET("/files/:id", fileHandler.Get)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
