package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/dfs-lineup/internal/api"
	"github.com/stitts-dev/dfs-lineup/internal/api/handlers"
	"github.com/stitts-dev/dfs-lineup/internal/api/middleware"
	"github.com/stitts-dev/dfs-lineup/internal/models"
	"github.com/stitts-dev/dfs-lineup/internal/services"
	"github.com/stitts-dev/dfs-lineup/internal/websocket"
	"github.com/stitts-dev/dfs-lineup/pkg/config"
	"github.com/stitts-dev/dfs-lineup/pkg/database"
	"github.com/stitts-dev/dfs-lineup/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := models.AutoMigrate(db.DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	breakers := services.NewCircuitBreakerService(cfg.CircuitBreakerThreshold, cfg.ExternalAPITimeout, log)

	// Redis is optional; without it results are simply not cached
	var cache *services.CacheService
	var redisPinger handlers.Pinger
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warnf("Invalid REDIS_URL, caching disabled: %v", err)
	} else {
		redisClient := redis.NewClient(opt)
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), cfg.ExternalAPITimeout)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warnf("Redis unavailable at startup, cache calls will be retried through the circuit breaker: %v", err)
		}
		cancel()

		cache = services.NewCacheService(redisClient, breakers, log)
		redisPinger = cache
	}

	store := services.NewLineupStore(db, breakers, log)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub(log)
	go hub.Run(hubCtx)

	router := api.NewRouter(api.Dependencies{
		Config:       cfg,
		Optimization: services.NewOptimizationService(cfg, cache, store, hub, log),
		Health:       handlers.NewHealthHandler(handlers.PingFunc(db.HealthCheck), redisPinger, breakers.States, log),
		Hub:          hub,
		Limiter:      middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Logger:       log,
	})

	if cfg.IsDevelopment() {
		for _, route := range router.Routes() {
			log.Debugf("%s %s", route.Method, route.Path)
		}
	}

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Timeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
