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

	_ "github.com/noah-isme/campus-timetable-api/api/swagger"
	"github.com/noah-isme/campus-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/campus-timetable-api/internal/middleware"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/repository"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	"github.com/noah-isme/campus-timetable-api/pkg/cache"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
	"github.com/noah-isme/campus-timetable-api/pkg/database"
	"github.com/noah-isme/campus-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-timetable-api/pkg/middleware/requestid"
)

// @title Campus Timetable API
// @version 1.0.0
// @description Generates, stores and exports university course timetables
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	var cacheRepo service.CacheRepository
	readiness := map[string]handler.Pinger{"postgres": db}
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		repo := repository.NewCacheRepository(redisClient)
		cacheRepo = repo
		readiness["redis"] = handler.PingFunc(repo.Ping)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Scheduler.ExportCacheTTL, logr)

	sectionRepo := repository.NewSectionRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	scheduleRepo := repository.NewCourseScheduleRepository(db)

	enrollments := service.NewEnrollmentLookup(enrollmentRepo, cacheSvc, cfg.Scheduler.EnrollmentCacheTTL, logr)
	timetables := service.NewTimetableService(sectionRepo, classroomRepo, scheduleRepo, enrollments, db, cacheSvc, metrics, validate, logr,
		service.TimetableServiceConfig{Enabled: cfg.Scheduler.Enabled})
	runs := service.NewTimetableRunService(timetables, validate, logr, service.TimetableRunConfig{
		RunTTL:  cfg.Scheduler.RunTTL,
		Workers: cfg.Scheduler.Workers,
		Retries: cfg.Scheduler.Retries,
	})
	runs.Start(ctx)
	defer runs.Stop()
	exports := service.NewTimetableExportService(scheduleRepo, cacheSvc, cfg.Scheduler.ExportCacheTTL, validate, logr)
	auth := service.NewAuthService(cfg.JWT.Secret)

	timetableHandler := handler.NewTimetableHandler(timetables, runs, exports)
	metricsHandler := handler.NewMetricsHandler(metrics, readiness)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limiter := internalmiddleware.RateLimit(internalmiddleware.RateLimitConfig{
		PerMinute: cfg.Scheduler.RateLimitPerMinute,
		Burst:     cfg.Scheduler.RateLimitBurst,
		Metrics:   metrics,
		Logger:    logr,
	})
	admins := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)

	api := r.Group(cfg.APIPrefix, internalmiddleware.JWT(auth))
	tt := api.Group("/timetables")
	tt.GET("", timetableHandler.List)
	tt.GET("/export", timetableHandler.Export)
	tt.POST("/generate", admins, limiter, timetableHandler.Generate)
	tt.POST("/runs", admins, limiter, timetableHandler.CreateRun)
	tt.GET("/runs/:id", admins, timetableHandler.GetRun)

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

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
