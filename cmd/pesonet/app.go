package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goodtune/pesonet/internal/config"
	"github.com/goodtune/pesonet/internal/report"
	"github.com/goodtune/pesonet/internal/shop"
	"github.com/goodtune/pesonet/internal/storage"
	"github.com/goodtune/pesonet/internal/storage/bolt"
	"github.com/goodtune/pesonet/internal/storage/file"
	"github.com/goodtune/pesonet/internal/storage/redis"
	"github.com/rs/zerolog"
)

// app bundles what every command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	store   storage.Store
	shop    *shop.Shop
	reports *report.Engine
}

// openApp loads configuration, opens the configured store and loads the
// shop state. Logs go to logOut.
func openApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging, logOut)

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	rate, _ := cfg.Shop.Rate()
	gateway := storage.NewGateway(store, storage.Bootstrap(storage.Defaults{
		AdminPassword: cfg.Bootstrap.AdminPassword,
		StaffPassword: cfg.Bootstrap.StaffPassword,
		StationRate:   rate,
	}), logger)

	state, err := gateway.Load(ctx)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	loc, _ := cfg.Shop.Location()
	weekStart, _ := cfg.Shop.Weekday()

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		shop:    shop.New(state, gateway, logger),
		reports: report.New(loc, weekStart),
	}, nil
}

// Close releases the store.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close storage")
	}
}

// openStorage opens the backend named by cfg.Type.
func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	var (
		store storage.Store
		err   error
	)

	switch cfg.Type {
	case "", "file":
		store, err = file.Open(cfg.Path)
	case "bolt":
		store, err = bolt.Open(cfg.Path)
	case "redis":
		store, err = redis.Open(cfg.Redis, cfg.Key)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if out == nil {
		out = os.Stdout
	}

	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(out).With().Timestamp().Logger()
}

// parseDuration parses a duration string with a fallback
func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
