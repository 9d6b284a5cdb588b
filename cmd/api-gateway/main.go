package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/regdocs-api/api/swagger"
	"github.com/noah-isme/regdocs-api/internal/handler"
	"github.com/noah-isme/regdocs-api/internal/middleware"
	"github.com/noah-isme/regdocs-api/internal/models"
	"github.com/noah-isme/regdocs-api/internal/repository"
	"github.com/noah-isme/regdocs-api/internal/service"
	"github.com/noah-isme/regdocs-api/pkg/cache"
	"github.com/noah-isme/regdocs-api/pkg/config"
	"github.com/noah-isme/regdocs-api/pkg/database"
	"github.com/noah-isme/regdocs-api/pkg/export"
	"github.com/noah-isme/regdocs-api/pkg/jobs"
	"github.com/noah-isme/regdocs-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/regdocs-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/regdocs-api/pkg/middleware/requestid"
	"github.com/noah-isme/regdocs-api/pkg/storage"
)

// @title RegDocs API
// @version 1.0.0
// @description Rules and regulations document service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	bookmarkRepo := repository.NewBookmarkRepository(db)
	contactRepo := repository.NewContactRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	reportRepo := repository.NewReportRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil && cfg.Analytics.Enabled {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, true)
	}

	docStorage, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	docSigner := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "regdocs-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	recordSvc := service.NewRecordService(recordRepo, bookmarkRepo, historyRepo, docStorage, docSigner, userRepo, logr, service.RecordServiceConfig{
		MaxFileSize:  cfg.Documents.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Documents.AllowedMIMEs,
		APIPrefix:    cfg.APIPrefix,
	})
	historySvc := service.NewHistoryService(historyRepo, recordRepo, logr)
	bookmarkSvc := service.NewBookmarkService(bookmarkRepo, recordRepo, logr)
	contactSvc := service.NewContactService(contactRepo, userRepo, logr)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, cacheSvc, metricsSvc, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		exportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		exportSigner := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(analyticsRepo, exportStorage, exportSigner, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, export.NewCSVExporter(), export.NewPDFExporter())

		worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		reportSvc = service.NewReportService(reportRepo, queue, exportSvc, userRepo, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	recordHandler := handler.NewRecordHandler(recordSvc)
	historyHandler := handler.NewHistoryHandler(historySvc)
	bookmarkHandler := handler.NewBookmarkHandler(bookmarkSvc)
	contactHandler := handler.NewContactHandler(contactSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	records := api.Group("/records", middleware.JWT(authSvc))
	{
		records.GET("", recordHandler.List)
		records.GET("/catalog", recordHandler.Catalog)
		records.GET("/:id", recordHandler.Get)
		records.GET("/:id/download", recordHandler.Download)
		records.POST("", middleware.RequireRoles(models.RoleAdmin), recordHandler.Upload)
		records.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), recordHandler.Update)
		records.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), recordHandler.Delete)
	}

	bookmarks := api.Group("/bookmarks", middleware.JWT(authSvc))
	{
		bookmarks.GET("", bookmarkHandler.List)
		bookmarks.POST("/:id", bookmarkHandler.Toggle)
	}

	history := api.Group("/history", middleware.JWT(authSvc))
	{
		history.GET("", historyHandler.List)
		history.POST("", historyHandler.Log)
		history.DELETE("", historyHandler.Clear)
	}

	contacts := api.Group("/contacts", middleware.JWT(authSvc))
	{
		contacts.GET("", contactHandler.List)
		contacts.GET("/:id", contactHandler.Get)
		contacts.POST("", middleware.RequireRoles(models.RoleAdmin), contactHandler.Create)
		contacts.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), contactHandler.Update)
		contacts.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), contactHandler.Delete)
	}

	analytics := api.Group("/analytics", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		analytics.GET("/usage", analyticsHandler.Usage)
		analytics.GET("/top-records", analyticsHandler.TopRecords)
		analytics.GET("/system", analyticsHandler.System)
	}

	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		reports := api.Group("/reports", middleware.JWT(authSvc))
		{
			reports.POST("", middleware.RequireRoles(models.RoleAdmin), reportHandler.Create)
			reports.GET("/:id", reportHandler.Status)
		}
		api.GET("/export/:token", reportHandler.Download)
	}

	users := api.Group("/users", middleware.JWT(authSvc), middleware.RBAC(string(models.RoleAdmin), "SELF"))
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.POST("", userHandler.Create)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
