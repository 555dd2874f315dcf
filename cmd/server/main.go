package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"drowsyguard/internal/config"
	mqtthandlers "drowsyguard/internal/handlers/mqtt"
	handlers "drowsyguard/internal/handlers/shared"
	"drowsyguard/internal/middleware"
	"drowsyguard/internal/registry"
	"drowsyguard/internal/repositories/mongodb"
	"drowsyguard/internal/services"
	"drowsyguard/pkg/cache"
	"drowsyguard/pkg/database"
	"drowsyguard/pkg/logger"
	"drowsyguard/pkg/mqtt"
	"drowsyguard/pkg/notify"
	"drowsyguard/pkg/websocket"
	"drowsyguard/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: cfg.App.LogFormat,
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Stores
	mongoDB, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Close()

	if err := mongoDB.EnsureIndexes(context.Background()); err != nil {
		appLogger.Fatalf("Failed to create indexes: %v", err)
	}

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	driverRepo := mongodb.NewDriverRepository(mongoDB.Database, redisCache)
	alertRepo := mongodb.NewAlertRepository(mongoDB.Database)

	// Vehicle channel
	mqttClient, err := mqtt.NewClient(&mqtt.Config{
		Broker:         cfg.MQTT.Broker,
		ClientID:       cfg.MQTT.ClientID,
		Username:       cfg.MQTT.Username,
		Password:       cfg.MQTT.Password,
		CertPath:       cfg.MQTT.CertPath,
		KeyPath:        cfg.MQTT.KeyPath,
		RootCAPath:     cfg.MQTT.RootCAPath,
		ConnectTimeout: cfg.MQTT.ConnectTimeout,
		PublishTimeout: cfg.MQTT.PublishTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MQTT broker: %v", err)
	}
	defer mqttClient.Disconnect()

	// Connection registry and dashboard push transport
	connRegistry := registry.NewRegistry(cfg.WebSocket.ConnectionTTL, cfg.Dispatch.FailureThreshold, appLogger)
	wsHandler := websocket.NewHandler(connRegistry, cfg.WebSocket, cfg.Security.JWTSecret, appLogger)

	// Core services
	dispatcher := services.NewDispatchService(connRegistry, wsHandler.GetHub(), cfg.Dispatch.RoundDeadline, appLogger)
	if cfg.MQTT.DashboardTopic != "" {
		dispatcher = services.NewDashboardBridge(dispatcher, mqttClient, cfg.MQTT.DashboardTopic, byte(cfg.MQTT.QoS), appLogger)
	}
	ackEmitter := services.NewAckEmitter(mqttClient, cfg.MQTT.AckTopic, byte(cfg.MQTT.QoS), appLogger)

	var notifier services.NotificationService
	if cfg.Notification.Enabled {
		snsNotifier, err := notify.NewSNSNotifier(cfg.Notification.AWSRegion)
		if err != nil {
			appLogger.Fatalf("Failed to initialize SNS notifier: %v", err)
		}
		notifier = services.NewNotificationService(snsNotifier, cfg.Notification, appLogger)
	}

	alertService := services.NewAlertService(
		driverRepo,
		alertRepo,
		dispatcher,
		ackEmitter,
		notifier,
		cfg.Directory,
		cfg.Dispatch.AlertTTL,
		appLogger,
	)
	profileService := services.NewProfileService(driverRepo, cfg.Dispatch.ProfileTTL, appLogger)

	alertHandler := mqtthandlers.NewAlertHandler(mqttClient, alertService, profileService, cfg.MQTT, appLogger)
	if err := alertHandler.Subscribe(); err != nil {
		appLogger.Fatalf("Failed to subscribe to vehicle topics: %v", err)
	}

	cleanup := services.NewCleanupService(connRegistry, cfg.Dispatch.PruneInterval, appLogger)
	if err := cleanup.Start(); err != nil {
		appLogger.Fatalf("Failed to start cleanup schedule: %v", err)
	}
	defer cleanup.Stop()

	// HTTP surface: dashboard websocket endpoint, read API, health
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	router.Use(middleware.RequestIDMiddleware())

	router.GET(cfg.WebSocket.Path, wsHandler.HandleDashboard)

	dashboardHandler := handlers.NewDashboardHandler(alertRepo, connRegistry)
	v1 := router.Group("/api/v1")
	{
		routes.SetupDashboardRoutes(v1, dashboardHandler)
	}

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"

		mongoState := "up"
		if err := mongoDB.Ping(); err != nil {
			mongoState = "down"
			status = "degraded"
		}

		redisState := "up"
		if err := redisCache.Ping(c.Request.Context()); err != nil {
			redisState = "down"
			status = "degraded"
		}

		mqttState := "up"
		if !mqttClient.IsConnected() {
			mqttState = "down"
			status = "degraded"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      status,
			"version":     cfg.App.Version,
			"mongodb":     mongoState,
			"redis":       redisState,
			"mqtt":        mqttState,
			"connections": connRegistry.Len(),
		})
	})

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		appLogger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Server error: %v", err)
		}
	}()

	// In-flight dispatch rounds finish or hit their deadline; there is no
	// extra drain step beyond closing the transports.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down")
	server.Close()
}
