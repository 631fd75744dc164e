// Package main is the entry point for the CliniPOS API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinipos/internal/infrastructure/assets"
	"clinipos/internal/infrastructure/auth"
	"clinipos/internal/infrastructure/cache"
	v1 "clinipos/internal/infrastructure/http/v1"
	"clinipos/internal/infrastructure/numerator"
	"clinipos/internal/infrastructure/storage/postgres"
	"clinipos/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting clinipos server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Change log ---
	changeLog, err := postgres.NewChangeLog(txManager)
	if err != nil {
		log.Fatalw("failed to initialize change log", "error", err)
	}

	// --- Numerator ---
	numeratorService := numerator.New(pool)

	// --- JWT validation ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Catalog cache ---
	var catalogCache cache.Cache = cache.NewNoop()
	if addr := getEnv("REDIS_ADDR", ""); addr != "" {
		redisCache, err := cache.NewRedisCache(ctx, addr)
		if err != nil {
			log.Warnw("redis unavailable, catalog cache disabled", "addr", addr, "error", err)
		} else {
			defer redisCache.Close()
			catalogCache = redisCache
			log.Infow("catalog cache enabled", "addr", addr)
		}
	}

	// --- Logo asset store ---
	logoStore, err := assets.NewDiskStore(getEnv("ASSETS_DIR", "./data/logos"))
	if err != nil {
		log.Fatalw("failed to initialize asset store", "error", err)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:         pool,
		TxManager:    txManager,
		Logger:       log,
		JWTValidator: jwtService,
		Numerator:    numeratorService,
		ChangeLog:    changeLog,
		Cache:        catalogCache,
		Logos:        logoStore,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
