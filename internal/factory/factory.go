package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/lexc24/tictactoe/internal/dependencies/clock"
	"github.com/lexc24/tictactoe/internal/dependencies/ident"
	"github.com/lexc24/tictactoe/internal/notifier"
	"github.com/lexc24/tictactoe/internal/services/matchmaking"
	"github.com/lexc24/tictactoe/internal/storage"
	"github.com/lexc24/tictactoe/internal/storage/memory"
	redisstorage "github.com/lexc24/tictactoe/internal/storage/redis"
	"github.com/lexc24/tictactoe/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Store storage.Store

	// External dependencies
	Clock clock.Clock
	Ident ident.Generator

	// Matchmaking core
	Engine     *matchmaking.Engine
	Controller *matchmaking.Controller

	// Collaborators
	Hub       *ws.Hub
	WSHandler *ws.Handler
	Notifier  *notifier.Broadcaster
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Store
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	return newWithDependencies(store, clock.New(), ident.New(), logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Store, clk clock.Clock, gen ident.Generator, logger *slog.Logger) *App {
	engine := matchmaking.NewEngine(store, clk, logger)
	controller := matchmaking.NewController(store, engine, clk, gen, logger)
	hub := ws.NewHub(logger)

	return &App{
		Store:      store,
		Clock:      clk,
		Ident:      gen,
		Engine:     engine,
		Controller: controller,
		Hub:        hub,
		WSHandler:  ws.NewHandler(hub, controller, gen, logger),
		Notifier:   notifier.New(store, hub, logger),
	}
}

// Close releases the application's resources
func (a *App) Close() error {
	a.Hub.Close()
	return a.Store.Close()
}
