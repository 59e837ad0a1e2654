package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"url-shortener/internal/api"
	"url-shortener/internal/auth"
	"url-shortener/internal/cache"
	"url-shortener/internal/config"
	"url-shortener/internal/db"
	"url-shortener/internal/logger"
	"url-shortener/internal/service"
	"url-shortener/internal/shortener"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// run owns every resource, so its deferred closes complete before main exits.
func run() error {
	// Load application configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	if !cfg.LogDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database connection
	zl.Info("connecting to database",
		zap.String("dialect", cfg.DatabaseDialect),
		zap.String("url", cfg.RedactedDatabaseURL()))
	store, err := db.Open(cfg.DatabaseDialect, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer store.Close()
	zl.Info("database connection successful and schema migrated")

	checks := map[string]api.Pinger{
		"database": func(context.Context) error { return store.Ping() },
	}

	opts := service.Options{
		BaseURL:           cfg.BaseURL,
		MaxInsertAttempts: cfg.InsertMaxAttempts,
	}

	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.Connect(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer client.Close()

		redirects := cache.NewRedirectCache(client, cfg.CacheTTL)
		opts.Cache = redirects
		checks["cache"] = func(ctx context.Context) error { return pingRedis(ctx, client) }
		zl.Info("redirect cache enabled", zap.Duration("ttl", redirects.TTL()))
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		return fmt.Errorf("initializing token service: %w", err)
	}

	codes := shortener.NewGenerator(cfg.CodeMaxAttempts)
	urls := service.NewURLService(store, codes, opts, zl)
	handler := api.NewHandler(urls, checks, zl)

	// Setup router
	router := api.SetupRouter(handler, api.RouterOptions{
		Tokens:         tokens,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         zl,
	})

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zl.Info("starting server",
			zap.String("addr", cfg.ServerPort),
			zap.String("base_url", cfg.BaseURL),
			zap.Int("code_max_attempts", codes.MaxAttempts()),
			zap.Int("insert_max_attempts", cfg.InsertMaxAttempts))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	select {
	case err := <-serveErr:
		return fmt.Errorf("serving http: %w", err)
	case <-quit:
		zl.Info("shutting down gracefully")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func pingRedis(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
