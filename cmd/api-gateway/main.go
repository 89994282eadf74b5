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

	_ "github.com/noah-isme/citedocs-api/api/swagger"
	"github.com/noah-isme/citedocs-api/internal/handler"
	internalmiddleware "github.com/noah-isme/citedocs-api/internal/middleware"
	"github.com/noah-isme/citedocs-api/internal/models"
	"github.com/noah-isme/citedocs-api/internal/repository"
	"github.com/noah-isme/citedocs-api/internal/service"
	"github.com/noah-isme/citedocs-api/pkg/cache"
	"github.com/noah-isme/citedocs-api/pkg/config"
	"github.com/noah-isme/citedocs-api/pkg/database"
	"github.com/noah-isme/citedocs-api/pkg/export"
	"github.com/noah-isme/citedocs-api/pkg/jobs"
	"github.com/noah-isme/citedocs-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/citedocs-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/citedocs-api/pkg/middleware/requestid"
	"github.com/noah-isme/citedocs-api/pkg/storage"
)

// @title CiteDocs API
// @version 1.0.0
// @description Registrar document request workflow
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck
	if err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("failed to apply migrations", zap.Error(err))
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis, cfg.Cache)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	fileStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare upload storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	statusLogRepo := repository.NewStatusLogRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationSvc := service.NewNotificationService(notificationRepo, metricsSvc, logr)
	notifyQueue := jobs.NewQueue("status-notifications", notificationSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
		OnResult:   notificationSvc.ObserveJob,
	})
	notifyQueue.Start(ctx)
	defer notifyQueue.Stop()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	if _, err := authSvc.EnsureRegistrar(ctx, cfg.Bootstrap.RegistrarEmail, cfg.Bootstrap.RegistrarPassword, cfg.Bootstrap.RegistrarName); err != nil {
		logr.Fatal("failed to bootstrap registrar account", zap.Error(err))
	}
	requestSvc := service.NewRequestService(service.RequestServiceParams{
		Requests:      requestRepo,
		Documents:     documentRepo,
		Audit:         userRepo,
		Notifications: notifyQueue,
		Cache:         cacheSvc,
		Metrics:       metricsSvc,
		Validator:     validate,
		Logger:        logr,
		StatsTTL:      cfg.Cache.TTL,
	})
	paymentSvc := service.NewPaymentService(paymentRepo, requestRepo, fileStore, signer, userRepo, logr, service.PaymentServiceConfig{
		MaxFileSize:  cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
		APIPrefix:    cfg.APIPrefix,
	})
	statusLogSvc := service.NewStatusLogService(statusLogRepo, logr)
	documentSvc := service.NewDocumentService(documentRepo, cacheSvc, cfg.Cache.TTL, logr)
	claimSlipSvc := service.NewClaimSlipService(requestSvc, paymentSvc, export.NewClaimSlipPDF(), logr)
	exportSvc := service.NewExportService(requestSvc, export.NewCSVExporter(), export.NewPDFExporter(), userRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	requestHandler := handler.NewRequestHandler(requestSvc, claimSlipSvc, exportSvc)
	statusLogHandler := handler.NewStatusLogHandler(statusLogSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	auth := api.Group("/auth")
	auth.POST("/register/student", authHandler.RegisterStudent)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))
	secured.POST("/auth/logout", authHandler.Logout)
	secured.POST("/auth/change-password", authHandler.ChangePassword)
	secured.GET("/auth/me", authHandler.Me)

	registrarOnly := internalmiddleware.RequireRoles(models.RoleRegistrar)
	studentOnly := internalmiddleware.RequireRoles(models.RoleStudent)

	secured.POST("/users", registrarOnly, authHandler.CreateUser)

	secured.GET("/documents", documentHandler.List)

	requests := secured.Group("/requests")
	requests.GET("", requestHandler.List)
	requests.POST("", studentOnly, requestHandler.Create)
	requests.GET("/stats", requestHandler.Stats)
	requests.GET("/export", registrarOnly, requestHandler.Export)
	requests.GET("/:id", requestHandler.Get)
	requests.PUT("/:id/status", registrarOnly, requestHandler.UpdateStatus)
	requests.GET("/:id/claim-slip", internalmiddleware.Audit(userRepo, models.AuditActionClaimSlip, "request"), requestHandler.ClaimSlip)

	secured.GET("/request-status-logs", statusLogHandler.List)
	secured.GET("/activity", statusLogHandler.Activity)

	payments := secured.Group("/payments")
	payments.POST("/upload", studentOnly, paymentHandler.Upload)
	payments.GET("/request/:id", paymentHandler.GetByRequest)
	payments.GET("/files/:token", internalmiddleware.Audit(userRepo, models.AuditActionPaymentView, "payment"), paymentHandler.Download)

	notifications := secured.Group("/notifications")
	notifications.GET("", notificationHandler.List)
	notifications.GET("/unread", notificationHandler.Unread)
	notifications.PUT("/read-all", notificationHandler.MarkAllRead)
	notifications.PUT("/:id/read", notificationHandler.MarkRead)
	notifications.DELETE("/:id", notificationHandler.Delete)
	notifications.DELETE("", notificationHandler.DeleteAll)

	secured.GET("/system/metrics", registrarOnly, metricsHandler.System)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
