package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"logline-fusion/internal/archive"
	"logline-fusion/internal/background"
	"logline-fusion/internal/config"
	"logline-fusion/internal/consequence"
	"logline-fusion/internal/domain/logevent"
	"logline-fusion/internal/domain/state"
	"logline-fusion/internal/handler"
	"logline-fusion/internal/middleware"
	"logline-fusion/internal/projector"
	redispkg "logline-fusion/internal/redis"
	"logline-fusion/internal/repository"
	"logline-fusion/internal/services"
	ws "logline-fusion/internal/websocket"
	"logline-fusion/pkg/database"
	"logline-fusion/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Server.Environment)
	defer func() { _ = appLogger.Logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(
		&logevent.LogEvent{},
		&state.Order{},
		&state.InventoryItem{},
	); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	redisClient := redispkg.NewClient(cfg.Redis)

	eventRepo := repository.NewLogEventRepository(db)
	orderRepo := repository.NewOrderStateRepository(db)
	inventoryRepo := repository.NewInventoryStateRepository(db)

	hub := ws.NewHub(appLogger)

	sink := background.NewSink(cfg.Background.QueueSize, appLogger)
	sink.Start(ctx)

	engine := consequence.NewEngine(cfg.Consequence.QueueSize, cfg.Consequence.MaxDepth, appLogger)

	proj := projector.New(eventRepo, orderRepo, inventoryRepo, appLogger)
	logService := services.NewLogService(eventRepo, proj, hub, sink, engine, appLogger)

	publisher := redispkg.NewPublisher(redisClient)
	logService.WithIntegrations(func(e *logevent.LogEvent) background.Task {
		return background.Task{
			Name: "redis_publish:" + e.ID,
			Run: func(taskCtx context.Context) error {
				payload, err := json.Marshal(e)
				if err != nil {
					return err
				}
				return publisher.Publish(taskCtx, redispkg.EventChannel, payload)
			},
		}
	})

	if cfg.Archive.Enabled {
		exporter, err := archive.NewExporter(ctx, cfg.Archive)
		if err != nil {
			log.Fatalf("Failed to initialize archive exporter: %v", err)
		}
		logService.WithIntegrations(exporter.Task)
	}

	engine.Start(ctx, logService)

	logHandler := handler.NewLogHandler(logService)
	actionsHandler := handler.NewActionsHandler(logService)
	wsHandler := ws.NewHandler(hub, cfg.WebSocket.KeepAliveInterval, cfg.WebSocket.WriteTimeout, appLogger)
	limiter := redispkg.NewRateLimiter(redisClient, cfg.RateLimit.AppendLimit, cfg.RateLimit.AppendWindow)

	if cfg.Server.Environment == logger.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(appLogger))
	r.Use(middleware.ErrorHandler(appLogger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
	{
		logs := api.Group("/logs")
		logs.POST("", middleware.RateLimitMiddleware(limiter), logHandler.Append)
		logs.GET("", logHandler.Query)
		logs.GET("/:id", logHandler.GetByID)

		actions := api.Group("/actions")
		actions.POST("/acionar_log", actionsHandler.AcionarLog)
		actions.POST("/acionar_log_institucional", actionsHandler.AcionarLogInstitucional)
		actions.POST("/trigger_consequence", actionsHandler.TriggerConsequence)
	}

	r.GET("/ws", middleware.AuthMiddleware(cfg.Auth.JWTSecret), wsHandler.Handle)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		appLogger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	appLogger.Infof("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorf("Server shutdown error: %v", err)
	}
}
