package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-room-api/api/swagger"
	"github.com/noah-isme/campus-room-api/internal/handler"
	"github.com/noah-isme/campus-room-api/internal/middleware"
	"github.com/noah-isme/campus-room-api/internal/repository"
	"github.com/noah-isme/campus-room-api/internal/service"
	"github.com/noah-isme/campus-room-api/pkg/cache"
	"github.com/noah-isme/campus-room-api/pkg/config"
	"github.com/noah-isme/campus-room-api/pkg/database"
	"github.com/noah-isme/campus-room-api/pkg/jobs"
	"github.com/noah-isme/campus-room-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-room-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-room-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-room-api/pkg/storage"
)

// @title Campus Room Allocation API
// @version 1.0.0
// @description Room request intake, batch allocation agent and conflict resolution.
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}

	classroomRepo := repository.NewClassroomRepository(db)
	requestRepo := repository.NewRoomRequestRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)
	historyRepo := repository.NewAllocationHistoryRepository(db)
	conflictRepo := repository.NewAllocationConflictRepository(db)
	runRepo := repository.NewAgentRunRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	metricsSvc := service.NewMetricsService()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var notifier *service.NotificationService
	if cfg.Notifications.Enabled {
		notifier = service.NewNotificationService(notificationRepo, jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			MaxRetries: cfg.Notifications.MaxRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
		}, logr)
		notifier.Start(ctx)
		defer notifier.Stop()
	}

	var agentNotifier service.AgentNotifier
	if notifier != nil {
		agentNotifier = notifier
	}
	agentSvc := service.NewAgentService(classroomRepo, requestRepo, allocationRepo, historyRepo, conflictRepo, runRepo, db, agentNotifier, metricsSvc, logr, cfg.Agent.Name)

	var runQueue *jobs.Queue
	if cfg.Agent.AsyncWorkers > 0 {
		runQueue = jobs.NewQueue("agent-runs", func(ctx context.Context, job jobs.Job) error {
			onlyPending, _ := job.Payload.(bool)
			_, err := agentSvc.Run(ctx, onlyPending)
			return err
		}, jobs.QueueConfig{Workers: cfg.Agent.AsyncWorkers, BufferSize: cfg.Agent.AsyncBuffer, Logger: logr})
		runQueue.Start(ctx)
		defer runQueue.Stop()
	}

	requestSvc := service.NewRequestService(requestRepo, allocationRepo, conflictRepo, historyRepo, nil, logr)
	classroomSvc := service.NewClassroomService(classroomRepo, allocationRepo, cacheFor(cacheRepo), cfg.Cache.RoomTTL, nil, logr)
	conflictSvc := service.NewConflictService(conflictRepo, logr)
	var exportStore *storage.LocalStorage
	var exportSigner *storage.SignedURLSigner
	if cfg.Exports.Enabled {
		exportStore, err = storage.NewLocalStorage(cfg.Exports.Dir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare export archive", "error", err)
		}
		exportSigner = storage.NewSignedURLSigner(cfg.Exports.URLSecret, cfg.Exports.URLTTL)
	}
	exportSvc := service.NewExportService(allocationRepo, classroomRepo, requestRepo, exportStore, exportSigner, logr)

	requestHandler := handler.NewRequestHandler(requestSvc, agentSvc)
	agentHandler := handler.NewAgentHandler(agentSvc, runQueue, logr)
	classroomHandler := handler.NewClassroomHandler(classroomSvc)
	conflictHandler := handler.NewConflictHandler(conflictSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/requests", requestHandler.Create)
		api.GET("/requests", requestHandler.List)
		api.GET("/requests/:id", requestHandler.Detail)
		api.POST("/requests/:id/override", requestHandler.Override)

		api.POST("/agent/run", agentHandler.Run)
		api.GET("/agent/runs", agentHandler.Runs)

		api.GET("/classrooms", classroomHandler.List)
		api.POST("/classrooms", classroomHandler.Create)
		api.GET("/classrooms/:id", classroomHandler.Get)
		api.PUT("/classrooms/:id", classroomHandler.Update)
		api.DELETE("/classrooms/:id", classroomHandler.Delete)

		api.GET("/conflicts", conflictHandler.ListOpen)
		api.POST("/conflicts/:id/resolve", conflictHandler.Resolve)

		if cfg.Exports.Enabled {
			api.GET("/exports/allocations.csv", exportHandler.AllocationsCSV)
			api.GET("/exports/allocations.pdf", exportHandler.AllocationsPDF)
			api.POST("/exports/allocations", exportHandler.Archive)
			api.GET("/exports/download", exportHandler.Download)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// cacheFor keeps the classroom service's cache dependency nil when redis is
// absent; a typed nil pointer would defeat its nil checks.
func cacheFor(repo *repository.CacheRepository) service.ClassroomCache {
	if repo == nil {
		return nil
	}
	return repo
}
