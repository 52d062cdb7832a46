// Package app wires configuration, storage, clients, and services into a
// runnable application core.
package app

import (
	"time"

	"github.com/bobmcallan/pulse/internal/clients/eodhd"
	"github.com/bobmcallan/pulse/internal/common"
	"github.com/bobmcallan/pulse/internal/interfaces"
	"github.com/bobmcallan/pulse/internal/services/analytics"
	"github.com/bobmcallan/pulse/internal/storage/badger"
)

// App holds all initialized clients and services. It is the shared core
// used by cmd/pulse.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Store       interfaces.EventStore
	Provider    interfaces.MarketDataProvider
	Analytics   *analytics.Service
	StartupTime time.Time
}

// NewApp loads configuration, opens storage, and initializes all services.
func NewApp(configPaths ...string) (*App, error) {
	config, err := common.LoadConfig(configPaths...)
	if err != nil {
		return nil, err
	}

	logger := common.NewLogger(config.Logging.Level)

	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, err
	}
	eventStore := badger.NewEventStorage(store, logger)

	provider := eodhd.NewClient(config.Clients.EODHD.APIKey,
		eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
		eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
		eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
		eodhd.WithLogger(logger),
	)

	service, err := analytics.New(config.Engine, provider, eventStore, logger)
	if err != nil {
		// Store is already open at this point; release it before bailing.
		_ = eventStore.Close()
		return nil, err
	}

	logger.Info().
		Str("environment", config.Environment).
		Str("storage_path", config.Storage.Path).
		Msg("Application initialized")

	return &App{
		Config:      config,
		Logger:      logger,
		Store:       eventStore,
		Provider:    provider,
		Analytics:   service,
		StartupTime: time.Now(),
	}, nil
}

// Close releases all resources held by the application.
func (a *App) Close() error {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Failed to close event store")
			return err
		}
	}
	return nil
}
