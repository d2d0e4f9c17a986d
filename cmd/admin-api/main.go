package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-admin-core/api/swagger"
	"github.com/noah-isme/sma-admin-core/internal/handler"
	"github.com/noah-isme/sma-admin-core/internal/middleware"
	"github.com/noah-isme/sma-admin-core/internal/models"
	"github.com/noah-isme/sma-admin-core/internal/repository"
	"github.com/noah-isme/sma-admin-core/internal/service"
	"github.com/noah-isme/sma-admin-core/pkg/cache"
	"github.com/noah-isme/sma-admin-core/pkg/config"
	"github.com/noah-isme/sma-admin-core/pkg/database"
	"github.com/noah-isme/sma-admin-core/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-admin-core/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-admin-core/pkg/middleware/requestid"
)

// @title SMA Admin Core API
// @version 1.0.0
// @description School administration API for users, classes, subjects and reports
// @BasePath /
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

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()

	var store service.CacheStore
	if cfg.Dashboard.CacheEnabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
		} else {
			redisStore := cache.NewStore(client)
			defer redisStore.Close() //nolint:errcheck
			store = redisStore
		}
	}
	cacheSvc := service.NewCacheService(store, metrics, cfg.Dashboard.CacheTTL, logr, store != nil)

	coordinator := repository.NewCoordinator(db, cfg.Database.TxIsolation, logr)
	userRepo := repository.NewUserRepository(coordinator)
	subjectRepo := repository.NewSubjectRepository(coordinator)
	classRepo := repository.NewClassRepository(coordinator)
	classSubjectRepo := repository.NewClassSubjectRepository(coordinator)
	existenceRepo := repository.NewExistenceRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	reportRepo := repository.NewReportRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	validate := service.NewValidator()
	hooks := service.WriteHooks{Audit: auditRepo, Cache: cacheSvc, Metrics: metrics, Logger: logr}
	policy := service.PasswordPolicy{MinLength: cfg.Password.MinLength, RequireLetterDigit: cfg.Password.RequireLetterDigit}

	userSvc := service.NewUserService(userRepo, service.NewUserValidator(existenceRepo, validate, policy), hooks, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, hooks)
	classSvc := service.NewClassService(classRepo, existenceRepo, validate, hooks)
	classSubjectSvc := service.NewClassSubjectService(classSubjectRepo, existenceRepo, validate, hooks)
	settingSvc := service.NewSettingService(settingRepo, validate, hooks, map[string]string{
		models.SettingAttendanceWindowDays: strconv.Itoa(cfg.Reports.AttendanceWindowDays),
		models.SettingBestClassMinSample:   strconv.Itoa(cfg.Reports.BestClassMinSample),
	})
	reportSvc := service.NewReportService(reportRepo, settingSvc, cacheSvc, service.ReportConfig{
		AttendanceWindowDays: cfg.Reports.AttendanceWindowDays,
		BestClassMinSample:   cfg.Reports.BestClassMinSample,
	})
	authSvc := service.NewAuthService(userRepo, validate, hooks, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	exportSvc := service.NewExportService(userSvc, classSubjectSvc)
	auditSvc := service.NewAuditService(auditRepo)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(corsmiddleware.Options{AllowedOrigins: cfg.CORS.AllowedOrigins}))

	health := handler.NewHealthHandler(db, metrics.Handler())
	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/metrics", health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", handler.NewAuthHandler(authSvc).Login)

	admin := api.Group("")
	admin.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))

	users := handler.NewUserHandler(userSvc, exportSvc)
	admin.GET("/users", users.List)
	admin.GET("/users/export", users.Export)
	admin.POST("/users", users.Create)
	admin.GET("/users/:id", users.Get)
	admin.PUT("/users/:id", users.Update)
	admin.DELETE("/users/:id", users.Delete)
	admin.POST("/users/:id/reset-password", users.ResetPassword)

	subjects := handler.NewSubjectHandler(subjectSvc)
	admin.GET("/subjects", subjects.List)
	admin.POST("/subjects", subjects.Create)
	admin.GET("/subjects/:id", subjects.Get)
	admin.PUT("/subjects/:id", subjects.Update)
	admin.DELETE("/subjects/:id", subjects.Delete)

	classes := handler.NewClassHandler(classSvc)
	admin.GET("/classes", classes.List)
	admin.POST("/classes", classes.Create)
	admin.GET("/classes/:id", classes.Get)
	admin.PUT("/classes/:id", classes.Update)
	admin.DELETE("/classes/:id", classes.Delete)

	assignments := handler.NewClassSubjectHandler(classSubjectSvc, exportSvc)
	admin.GET("/class-subjects", assignments.List)
	admin.GET("/class-subjects/export", assignments.Export)
	admin.POST("/class-subjects", assignments.Create)
	admin.GET("/class-subjects/:id", assignments.Get)
	admin.PUT("/class-subjects/:id", assignments.Update)
	admin.DELETE("/class-subjects/:id", assignments.Delete)

	reports := handler.NewReportHandler(reportSvc, classSvc, subjectSvc)
	admin.GET("/reports/users-by-role", reports.UsersByRole)
	admin.GET("/reports/attendance", reports.Attendance)
	admin.GET("/reports/best-class", reports.BestClass)
	admin.GET("/reports/classes", reports.Classes)
	admin.GET("/reports/subjects", reports.Subjects)
	admin.GET("/reports/dashboard", reports.Dashboard)

	settings := handler.NewSettingHandler(settingSvc)
	admin.GET("/settings", settings.List)
	admin.GET("/settings/:key", settings.Get)
	admin.PUT("/settings/:key", settings.Update)

	admin.GET("/audit-logs", handler.NewAuditHandler(auditSvc).List)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
