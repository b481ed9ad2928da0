package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/ratrace-game/server/internal/dependencies/clock"
	"github.com/ratrace-game/server/internal/dependencies/random"
	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/services/auth"
	"github.com/ratrace-game/server/internal/services/ledger"
	"github.com/ratrace-game/server/internal/services/profession"
	"github.com/ratrace-game/server/internal/services/registry"
	"github.com/ratrace-game/server/internal/services/stats"
	"github.com/ratrace-game/server/internal/services/turn"
	"github.com/ratrace-game/server/internal/storage"
	"github.com/ratrace-game/server/internal/storage/memory"
	redisstorage "github.com/ratrace-game/server/internal/storage/redis"
	"github.com/ratrace-game/server/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	LedgerService *ledger.Service
	Negotiator    *profession.Negotiator
	Scheduler     *turn.Scheduler
	Stats         *stats.Aggregator
	AuthService   *auth.Service
	Registry      *registry.Registry

	// Transport
	HubManager *ws.HubManager
	WSHandler  *ws.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// RegistryConfig holds room lifecycle settings (optional)
	// If zero value, defaults to registry.DefaultConfig()
	RegistryConfig registry.Config
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
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
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

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.TokenDuration == 0 {
		secret := authCfg.Secret
		authCfg = auth.DefaultConfig()
		if secret != "" {
			authCfg.Secret = secret
		}
	}

	regCfg := cfg.RegistryConfig
	if regCfg.IdleTimeout == 0 {
		regCfg = registry.DefaultConfig()
	}

	return newWithDependencies(store, clk, rnd, authCfg, regCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	regCfg registry.Config,
	logger *slog.Logger,
) *App {
	// Create services
	ledgerService := ledger.New(clk, rnd)
	negotiator := profession.New(ledgerService, rnd, model.DefaultProfessions())
	scheduler := turn.New(clk)
	statsAggregator := stats.New(store, clk)
	authService := auth.New(store, clk, rnd, authCfg)
	reg := registry.New(regCfg, store, ledgerService, negotiator, scheduler, statsAggregator, clk, rnd, logger)

	// Wire the transport layer: room events reach connected sockets
	// through each session's hub
	hubManager := ws.NewHubManager(logger)
	wsHandler := ws.NewHandler(authService, reg, hubManager, rnd, logger)
	reg.SetSessionHook(wsHandler.SessionHook())

	return &App{
		Storage:       store,
		Clock:         clk,
		Random:        rnd,
		LedgerService: ledgerService,
		Negotiator:    negotiator,
		Scheduler:     scheduler,
		Stats:         statsAggregator,
		AuthService:   authService,
		Registry:      reg,
		HubManager:    hubManager,
		WSHandler:     wsHandler,
	}
}
