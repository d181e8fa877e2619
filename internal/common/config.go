package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nearby/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	Variables   KeysDirConfig `toml:"variables"`
	Places      PlacesConfig  `toml:"places"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Output []string `toml:"output"` // "stdout", "file"
}

// KeysDirConfig points at the directory holding variables.toml
type KeysDirConfig struct {
	Dir string `toml:"dir"`
}

// PlacesConfig contains places backend and lookup defaults
type PlacesConfig struct {
	BaseURL            string   `toml:"base_url" validate:"required,url"`
	SearchRadiusMeters int      `toml:"search_radius_meters" validate:"gt=0"` // gps accuracy sent with nearby searches
	DefaultLimit       int      `toml:"default_limit" validate:"gt=0"`
	DefaultFilter      []string `toml:"default_filter"`
	DisableFilter      bool     `toml:"disable_filter"`                      // pass all nearby results through unfiltered
	RateLimit          int      `toml:"rate_limit" validate:"gt=0"`          // requests per second
	RequestTimeout     string   `toml:"request_timeout" validate:"required"` // duration string, e.g. "15s"
}

// Timeout returns the parsed request timeout, falling back to 15s when unparsable
func (p PlacesConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(p.RequestTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Variables: KeysDirConfig{
			Dir: "./",
		},
		Places: PlacesConfig{
			BaseURL:            "http://localhost:8090/places",
			SearchRadiusMeters: 65,
			DefaultLimit:       10,
			DefaultFilter: []string{
				"Restaurant",
				"Cafe",
				"Coffee",
				"Bar",
				"Museum",
				"Park",
				"Store",
			},
			RateLimit:      10,
			RequestTimeout: "15s",
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> {key} replacement -> env
// kvStorage can be nil (replacement is skipped)
func LoadFromFiles(kvStorage interfaces.KeyValueStorage, paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Later files override earlier ones
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	if kvStorage != nil {
		ApplyKeyReplacements(context.Background(), config, kvStorage, arbor.NewLogger())
	}

	applyEnvOverrides(config)

	return config, nil
}

// ApplyKeyReplacements replaces {key} references in the config's string fields
// with values from the KV store. Failures are logged and skipped.
func ApplyKeyReplacements(ctx context.Context, config *Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) {
	kvMap, err := kvStorage.GetAll(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to fetch KV map for config replacement, skipping replacement")
		return
	}

	if err := ReplaceInStruct(config, kvMap, logger); err != nil {
		logger.Warn().Err(err).Msg("Failed to replace key references in config")
		return
	}

	logger.Debug().Int("keys", len(kvMap)).Msg("Applied key/value replacements to config")
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NEARBY_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("NEARBY_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("NEARBY_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("NEARBY_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("NEARBY_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("NEARBY_LOG_OUTPUT"); output != "" {
		if outputs := splitList(output); len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if variablesDir := os.Getenv("NEARBY_VARIABLES_DIR"); variablesDir != "" {
		config.Variables.Dir = variablesDir
	}

	// Places configuration
	if baseURL := os.Getenv("NEARBY_PLACES_BASE_URL"); baseURL != "" {
		config.Places.BaseURL = baseURL
	}
	if radius := os.Getenv("NEARBY_PLACES_RANGE"); radius != "" {
		if r, err := strconv.Atoi(radius); err == nil {
			config.Places.SearchRadiusMeters = r
		}
	}
	if limit := os.Getenv("NEARBY_PLACES_LIMIT"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			config.Places.DefaultLimit = l
		}
	}
	if filter, ok := os.LookupEnv("NEARBY_PLACES_FILTER"); ok {
		config.Places.DefaultFilter = splitList(filter)
	}
	if disable := os.Getenv("NEARBY_PLACES_DISABLE_FILTER"); disable != "" {
		if d, err := strconv.ParseBool(disable); err == nil {
			config.Places.DisableFilter = d
		}
	}
	if rateLimit := os.Getenv("NEARBY_PLACES_RATE_LIMIT"); rateLimit != "" {
		if rl, err := strconv.Atoi(rateLimit); err == nil {
			config.Places.RateLimit = rl
		}
	}
	if timeout := os.Getenv("NEARBY_PLACES_REQUEST_TIMEOUT"); timeout != "" {
		if _, err := time.ParseDuration(timeout); err == nil {
			config.Places.RequestTimeout = timeout
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the config against its struct constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if d, err := time.ParseDuration(c.Places.RequestTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid configuration: places.request_timeout %q is not a positive duration", c.Places.RequestTimeout)
	}
	return nil
}

// splitList splits a comma-separated list, dropping blank entries
func splitList(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
