package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nearby/internal/common"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = filepath.Join(dir, "data")
	cfg.Variables.Dir = dir
	cfg.Logging.Output = []string{"stdout"}
	return cfg
}

func TestNew_WiresComponents(t *testing.T) {
	application, err := New(testConfig(t), arbor.NewLogger())
	require.NoError(t, err)
	defer application.Close()

	assert.NotNil(t, application.DB)
	assert.NotNil(t, application.KVStorage)
	assert.NotNil(t, application.EventService)
	assert.NotNil(t, application.PlacesClient)
	assert.NotNil(t, application.PlacesService)
	assert.NotNil(t, application.APIHandler)
	assert.NotNil(t, application.PlacesHandler)
	assert.NotNil(t, application.KVHandler)
	assert.Equal(t, 0, application.PlacesService.CacheSize())
}

func TestNew_ResolvesVariablesIntoConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Places.BaseURL = "https://{places-host}/v1"
	cfg.Places.DefaultFilter = []string{"{primary-category}", "Park"}

	variables := `
[places-host]
value = "places.example.com"
description = "Places backend host"

[primary-category]
value = "Coffee"
`
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Variables.Dir, "variables.toml"), []byte(variables), 0644))

	application, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer application.Close()

	assert.Equal(t, "https://places.example.com/v1", application.Config.Places.BaseURL)
	assert.Equal(t, []string{"Coffee", "Park"}, application.Config.Places.DefaultFilter)

	value, err := application.KVStorage.Get(context.Background(), "places-host")
	require.NoError(t, err)
	assert.Equal(t, "places.example.com", value)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Places.DefaultLimit = 0

	application, err := New(cfg, arbor.NewLogger())
	assert.Error(t, err)
	assert.Nil(t, application)
}

func TestClose_IsIdempotent(t *testing.T) {
	application, err := New(testConfig(t), arbor.NewLogger())
	require.NoError(t, err)

	require.NoError(t, application.Close())
	assert.NoError(t, application.Close())
}
