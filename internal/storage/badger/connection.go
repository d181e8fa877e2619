// Package badger stores runtime variables in an embedded Badger database.
package badger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/nearby/internal/common"
)

// DB wraps the badgerhold store holding the variables
type DB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	path   string
}

// Open opens (creating if needed) the database at config.Path
func Open(config *common.BadgerConfig, logger arbor.ILogger) (*DB, error) {
	if config.ResetOnStartup {
		if _, err := os.Stat(config.Path); err == nil {
			logger.Debug().Str("path", config.Path).Msg("Removing existing database (reset_on_startup=true)")
			if err := os.RemoveAll(config.Path); err != nil {
				logger.Warn().Err(err).Str("path", config.Path).Msg("Failed to remove database directory")
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = config.Path
	options.ValueDir = config.Path
	options.Logger = nil // badger's own logger is noisy; arbor covers open/close

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", config.Path, err)
	}

	logger.Debug().Str("path", config.Path).Msg("Badger database opened")

	return &DB{
		store:  store,
		logger: logger,
		path:   config.Path,
	}, nil
}

// Store returns the underlying badgerhold store
func (d *DB) Store() *badgerhold.Store {
	return d.store
}

// Close closes the database
func (d *DB) Close() error {
	if d.store == nil {
		return nil
	}
	d.logger.Debug().Str("path", d.path).Msg("Closing badger database")
	return d.store.Close()
}
