package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nearby/internal/common"
	"github.com/ternarybob/nearby/internal/handlers"
	"github.com/ternarybob/nearby/internal/services/events"
	"github.com/ternarybob/nearby/internal/services/places"
	"github.com/ternarybob/nearby/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB        *badger.DB
	KVStorage *badger.KVStorage

	// Services
	EventService  *events.Service
	PlacesClient  *places.Client
	PlacesService *places.Service

	// HTTP handlers
	APIHandler    *handlers.APIHandler
	PlacesHandler *handlers.PlacesHandler
	KVHandler     *handlers.KVHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Phase 2 of config loading: {key} references resolve once variables are loaded
	app.resolveVariables()

	if err := app.Config.Validate(); err != nil {
		app.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("places_base_url", cfg.Places.BaseURL).
		Int("default_limit", cfg.Places.DefaultLimit).
		Bool("filter_disabled", cfg.Places.DisableFilter).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase opens the variables store
func (a *App) initDatabase() error {
	db, err := badger.Open(&a.Config.Storage.Badger, a.Logger)
	if err != nil {
		return err
	}

	a.DB = db
	a.KVStorage = badger.NewKVStorage(db, a.Logger)

	a.Logger.Debug().
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// resolveVariables loads variables.toml into the KV store and applies
// {key} replacements to the loaded config. Failures are logged, not fatal.
func (a *App) resolveVariables() {
	ctx := context.Background()

	if _, err := badger.LoadVariables(ctx, a.KVStorage, a.Config.Variables.Dir, a.Logger); err != nil {
		a.Logger.Warn().
			Err(err).
			Str("dir", a.Config.Variables.Dir).
			Msg("Failed to load variables from file")
	}

	common.ApplyKeyReplacements(ctx, a.Config, a.KVStorage, a.Logger)
}

// initServices wires the event bus, places client and places service
func (a *App) initServices() error {
	a.EventService = events.NewService(a.Logger)
	if err := events.SubscribeLoggerToAllEvents(a.EventService, a.Logger); err != nil {
		return fmt.Errorf("failed to subscribe event logger: %w", err)
	}

	a.PlacesClient = places.NewClient(
		places.WithBaseURL(a.Config.Places.BaseURL),
		places.WithHTTPClient(&http.Client{Timeout: a.Config.Places.Timeout()}),
		places.WithLogger(a.Logger),
		places.WithRateLimit(a.Config.Places.RateLimit),
	)

	a.PlacesService = places.NewService(&a.Config.Places, a.PlacesClient, a.EventService, a.Logger)

	a.Logger.Debug().
		Str("base_url", a.Config.Places.BaseURL).
		Int("rate_limit", a.Config.Places.RateLimit).
		Dur("timeout", a.Config.Places.Timeout()).
		Msg("Places service initialized")

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.PlacesHandler = handlers.NewPlacesHandler(a.PlacesService, a.Logger)
	a.KVHandler = handlers.NewKVHandler(a.KVStorage, a.Logger)
}

// Close releases all application resources
func (a *App) Close() error {
	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.DB = nil
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
