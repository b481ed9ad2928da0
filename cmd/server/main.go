package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ratrace-game/server/internal/api"
	"github.com/ratrace-game/server/internal/factory"
	"github.com/ratrace-game/server/internal/services/auth"
	"github.com/ratrace-game/server/internal/services/registry"
	redisstorage "github.com/ratrace-game/server/internal/storage/redis"
)

// envConfig is the server configuration read from the environment
type envConfig struct {
	Host string `env:"HOST"`
	Port int    `env:"PORT" envDefault:"8080"`

	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL"`

	AuthSecret    string        `env:"AUTH_SECRET"`
	TokenDuration time.Duration `env:"TOKEN_DURATION" envDefault:"24h"`

	RoomIdleTimeout time.Duration `env:"ROOM_IDLE_TIMEOUT" envDefault:"1h"`
	RoomRetention   time.Duration `env:"ROOM_RETENTION" envDefault:"24h"`
	InterestPeriod  time.Duration `env:"INTEREST_PERIOD" envDefault:"1h"`
	DisconnectGrace time.Duration `env:"DISCONNECT_GRACE" envDefault:"2m"`

	TickInterval  time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
}

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		logger.Error("failed to parse environment", slog.String("error", err.Error()))
		os.Exit(1)
	}

	authCfg := auth.DefaultConfig()
	authCfg.Secret = ec.AuthSecret
	authCfg.TokenDuration = ec.TokenDuration
	if authCfg.Secret == "" {
		logger.Warn("AUTH_SECRET not set, issued tokens will not survive restarts")
	}

	regCfg := registry.Config{
		IdleTimeout:     ec.RoomIdleTimeout,
		Retention:       ec.RoomRetention,
		InterestPeriod:  ec.InterestPeriod,
		DisconnectGrace: ec.DisconnectGrace,
	}

	cfg := factory.Config{
		AuthConfig:     authCfg,
		RegistryConfig: regCfg,
		Logger:         logger,
		StorageType:    ec.StorageType,
	}

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Rehydrate active rooms from storage before accepting traffic
	if err := app.Registry.RestoreActive(ctx); err != nil {
		logger.Error("failed to restore rooms", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		AuthService: app.AuthService,
		Registry:    app.Registry,
		Negotiator:  app.Negotiator,
		Stats:       app.Stats,
		WSHandler:   app.WSHandler,
	})

	// Maintenance loops: turn/game deadlines, cleanup sweep, hub cleanup
	go func() {
		ticker := time.NewTicker(ec.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				app.Registry.TickAll(ctx, now)
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(ec.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				deactivated, deleted := app.Registry.SweepInactive(ctx, now)
				if deactivated > 0 || deleted > 0 {
					logger.Info("cleanup sweep",
						slog.Int("deactivated", deactivated),
						slog.Int("deleted", deleted))
				}
				app.HubManager.CleanupEmptyHubs()
			}
		}
	}()

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = ec.Host
	serverConfig.Port = ec.Port
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

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
		// Drain queued room saves before the process exits
		app.Registry.FlushAll()
	}

	logger.Info("server stopped")
}
