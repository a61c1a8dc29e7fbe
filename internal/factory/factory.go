package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/hostcard/pokerroom/internal/api/sse"
	"github.com/hostcard/pokerroom/internal/dependencies/clock"
	"github.com/hostcard/pokerroom/internal/dependencies/random"
	"github.com/hostcard/pokerroom/internal/services/hands"
	"github.com/hostcard/pokerroom/internal/services/registry"
	"github.com/hostcard/pokerroom/internal/services/room"
	"github.com/hostcard/pokerroom/internal/storage"
	"github.com/hostcard/pokerroom/internal/storage/memory"
	"github.com/hostcard/pokerroom/internal/storage/postgres"
	redisstorage "github.com/hostcard/pokerroom/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	HandsService    *hands.Service
	RoomController  *room.Controller
	RegistryService *registry.Service
	HubManager      *sse.HubManager
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or
	// "postgres"). If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DatabaseURL is the Postgres DSN (required if StorageType is "postgres")
	DatabaseURL string
	// RegistryConfig holds session settings (optional)
	// If zero value, defaults to registry.DefaultConfig()
	RegistryConfig registry.Config
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
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
	case StorageTypePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DatabaseURL required when StorageType is postgres")
		}
		pgStore, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pgStore.Migrate(ctx); err != nil {
			return nil, err
		}
		store = pgStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'postgres'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	registryCfg := cfg.RegistryConfig
	if registryCfg.SessionDuration == 0 {
		registryCfg = registry.DefaultConfig()
	}

	return newWithDependencies(store, clk, rnd, registryCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Store, clk clock.Clock, rnd random.Random, registryCfg registry.Config, logger *slog.Logger) *App {
	// Create services
	handsService := hands.New(logger)
	roomController := room.NewController(store, handsService, clk, rnd)
	registryService := registry.New(store, clk, rnd, registryCfg)
	hubManager := sse.NewHubManager(store, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		HandsService:    handsService,
		RoomController:  roomController,
		RegistryService: registryService,
		HubManager:      hubManager,
	}
}
