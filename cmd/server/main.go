package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"

	"github.com/lexc24/tictactoe/internal/api"
	"github.com/lexc24/tictactoe/internal/factory"
	redisstorage "github.com/lexc24/tictactoe/internal/storage/redis"
)

// envConfig is the server configuration read from the environment
type envConfig struct {
	Host        string  `env:"HOST" envDefault:""`
	Port        int     `env:"PORT" envDefault:"8080"`
	StorageType string  `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string  `env:"REDIS_URL"`
	RateLimit   float64 `env:"RATE_LIMIT" envDefault:"10"`
	RateBurst   int     `env:"RATE_BURST" envDefault:"20"`
	LogLevel    string  `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		slog.Error("failed to parse environment", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(ec.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	cfg := factory.Config{
		Logger:      logger,
		StorageType: ec.StorageType,
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		if ec.RedisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = ec.RedisURL
		cfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = app.Close() }()

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start the fan-out loops
	go app.Hub.Run()
	go app.Notifier.Run(ctx)

	// Create router and server
	router := api.NewRouter(api.RouterConfig{
		Logger:     logger,
		Controller: app.Controller,
		WSHandler:  app.WSHandler,
		RateLimit:  ec.RateLimit,
		RateBurst:  ec.RateBurst,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = ec.Host
	serverConfig.Port = ec.Port
	server := api.NewServer(router, serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
