package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/open-tracker/internal/api"
	"github.com/ignite/open-tracker/internal/config"
	"github.com/ignite/open-tracker/internal/tracker"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := tracker.Open(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.Init(initCtx); err != nil {
		cancelInit()
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	cancelInit()
	log.Printf("store ready (driver=%s)", cfg.Storage.Driver)

	svc := tracker.NewService(store, cfg.Tracking.BaseURL)
	handlers := api.NewHandlers(svc, cfg.Tracking.LogTimeout())

	var limiter func(http.Handler) http.Handler
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("WARNING redis unavailable, register rate limiting disabled: %v", err)
		} else {
			rl := api.NewRateLimiter(redisClient, cfg.Tracking.RegisterRateLimit, cfg.Tracking.RateWindow())
			limiter = rl.Middleware
			log.Printf("register rate limiting enabled (%d req / %s)", cfg.Tracking.RegisterRateLimit, cfg.Tracking.RateWindow())
		}
	}

	server := api.NewServer(cfg.Server, handlers, limiter)
	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)

	go func() {
		log.Printf("tracking server listening on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down tracking server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}
