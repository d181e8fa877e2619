package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/nearby/internal/interfaces"
)

var _ interfaces.KeyValueStorage = (*KVStorage)(nil)

// KVStorage keeps variables as KeyValuePair records keyed by lower-cased name
type KVStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewKVStorage creates a KVStorage on db
func NewKVStorage(db *DB, logger arbor.ILogger) *KVStorage {
	return &KVStorage{
		db:     db,
		logger: logger,
	}
}

// keys are case-insensitive
func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (s *KVStorage) load(key string) (*interfaces.KeyValuePair, error) {
	var pair interfaces.KeyValuePair
	err := s.db.Store().Get(normalizeKey(key), &pair)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return &pair, nil
}

// Get returns the value stored under key
func (s *KVStorage) Get(ctx context.Context, key string) (string, error) {
	pair, err := s.load(key)
	if err != nil {
		return "", err
	}
	return pair.Value, nil
}

// GetPair returns the full record stored under key
func (s *KVStorage) GetPair(ctx context.Context, key string) (*interfaces.KeyValuePair, error) {
	return s.load(key)
}

// Upsert writes key, keeping the original CreatedAt of an existing record.
// It reports whether the key was new.
func (s *KVStorage) Upsert(ctx context.Context, key string, value string, description string) (bool, error) {
	normalized := normalizeKey(key)
	if normalized == "" {
		return false, fmt.Errorf("key cannot be empty")
	}

	now := time.Now()
	pair := interfaces.KeyValuePair{
		Key:         normalized,
		Value:       value,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	existing, err := s.load(normalized)
	isNew := errors.Is(err, interfaces.ErrKeyNotFound)
	switch {
	case err == nil:
		pair.CreatedAt = existing.CreatedAt
	case !isNew:
		return false, err
	}

	if err := s.db.Store().Upsert(normalized, &pair); err != nil {
		return false, fmt.Errorf("failed to upsert key %q: %w", normalized, err)
	}

	return isNew, nil
}

// Delete removes key
func (s *KVStorage) Delete(ctx context.Context, key string) error {
	err := s.db.Store().Delete(normalizeKey(key), &interfaces.KeyValuePair{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return interfaces.ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// List returns every record, most recently updated first
func (s *KVStorage) List(ctx context.Context) ([]interfaces.KeyValuePair, error) {
	var pairs []interfaces.KeyValuePair
	if err := s.db.Store().Find(&pairs, badgerhold.Where("Key").Ne("").SortBy("UpdatedAt").Reverse()); err != nil {
		return nil, fmt.Errorf("failed to list variables: %w", err)
	}
	return pairs, nil
}

// GetAll returns every variable as a key/value map
func (s *KVStorage) GetAll(ctx context.Context) (map[string]string, error) {
	var pairs []interfaces.KeyValuePair
	if err := s.db.Store().Find(&pairs, nil); err != nil {
		return nil, fmt.Errorf("failed to read variables: %w", err)
	}

	kvMap := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		kvMap[pair.Key] = pair.Value
	}
	return kvMap, nil
}
