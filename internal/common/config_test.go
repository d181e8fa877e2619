package common

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nearby/internal/interfaces"
)

// mapKVStorage implements interfaces.KeyValueStorage for testing
type mapKVStorage struct {
	data map[string]string
}

func (m *mapKVStorage) Get(ctx context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", interfaces.ErrKeyNotFound
}

func (m *mapKVStorage) GetPair(ctx context.Context, key string) (*interfaces.KeyValuePair, error) {
	if v, ok := m.data[key]; ok {
		return &interfaces.KeyValuePair{Key: key, Value: v}, nil
	}
	return nil, interfaces.ErrKeyNotFound
}

func (m *mapKVStorage) Upsert(ctx context.Context, key, value, description string) (bool, error) {
	_, exists := m.data[key]
	m.data[key] = value
	return !exists, nil
}

func (m *mapKVStorage) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mapKVStorage) List(ctx context.Context) ([]interfaces.KeyValuePair, error) {
	var pairs []interfaces.KeyValuePair
	for k, v := range m.data {
		pairs = append(pairs, interfaces.KeyValuePair{Key: k, Value: v})
	}
	return pairs, nil
}

func (m *mapKVStorage) GetAll(ctx context.Context) (map[string]string, error) {
	result := make(map[string]string, len(m.data))
	for k, v := range m.data {
		result[k] = v
	}
	return result, nil
}

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig_IsValid(t *testing.T) {
	config := NewDefaultConfig()

	require.NoError(t, config.Validate())
	assert.Greater(t, config.Places.SearchRadiusMeters, 0)
	assert.Greater(t, config.Places.DefaultLimit, 0)
	assert.NotEmpty(t, config.Places.DefaultFilter)
	assert.False(t, config.Places.DisableFilter)
}

func TestLoadFromFiles_LaterFilesOverride(t *testing.T) {
	base := writeConfigFile(t, "base.toml", `
[server]
port = 9000

[places]
base_url = "https://places.example.com/v1"
default_limit = 5
default_filter = ["Coffee", "Book"]
request_timeout = "5s"
`)
	override := writeConfigFile(t, "override.toml", `
[places]
default_limit = 8
disable_filter = true
`)

	config, err := LoadFromFiles(nil, base, override)
	require.NoError(t, err)

	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "https://places.example.com/v1", config.Places.BaseURL)
	assert.Equal(t, 8, config.Places.DefaultLimit)
	assert.Equal(t, []string{"Coffee", "Book"}, config.Places.DefaultFilter)
	assert.True(t, config.Places.DisableFilter)
	assert.Equal(t, 5*time.Second, config.Places.Timeout())
	require.NoError(t, config.Validate())
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(nil, filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadFromFiles_EnvOverrides(t *testing.T) {
	t.Setenv("NEARBY_SERVER_PORT", "9999")
	t.Setenv("NEARBY_PLACES_RANGE", "250")
	t.Setenv("NEARBY_PLACES_LIMIT", "3")
	t.Setenv("NEARBY_PLACES_FILTER", "Museum, Park ,")
	t.Setenv("NEARBY_PLACES_REQUEST_TIMEOUT", "2s")

	config, err := LoadFromFiles(nil)
	require.NoError(t, err)

	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, 250, config.Places.SearchRadiusMeters)
	assert.Equal(t, 3, config.Places.DefaultLimit)
	assert.Equal(t, []string{"Museum", "Park"}, config.Places.DefaultFilter)
	assert.Equal(t, 2*time.Second, config.Places.Timeout())
}

func TestLoadFromFiles_KeyReplacement(t *testing.T) {
	path := writeConfigFile(t, "nearby.toml", `
[places]
base_url = "https://{places-host}/v1"
default_filter = ["{primary-category}", "Museum"]
`)
	kv := &mapKVStorage{data: map[string]string{
		"places-host":      "places.example.com",
		"primary-category": "Coffee",
	}}

	config, err := LoadFromFiles(kv, path)
	require.NoError(t, err)

	assert.Equal(t, "https://places.example.com/v1", config.Places.BaseURL)
	assert.Equal(t, []string{"Coffee", "Museum"}, config.Places.DefaultFilter)
}

func TestReplaceKeyReferences_UnknownKeyUnchanged(t *testing.T) {
	got := ReplaceKeyReferences("{known}-{unknown}", map[string]string{"known": "a"}, arbor.NewLogger())
	assert.Equal(t, "a-{unknown}", got)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 8085, config.Server.Port)

	ApplyFlagOverrides(config, 7000, "0.0.0.0")
	assert.Equal(t, 7000, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}

func TestConfig_ValidateRejectsBadPlacesSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero radius", func(c *Config) { c.Places.SearchRadiusMeters = 0 }},
		{"zero limit", func(c *Config) { c.Places.DefaultLimit = 0 }},
		{"bad base url", func(c *Config) { c.Places.BaseURL = "not a url" }},
		{"zero rate limit", func(c *Config) { c.Places.RateLimit = 0 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad timeout", func(c *Config) { c.Places.RequestTimeout = "soon" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}
