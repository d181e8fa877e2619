package badger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nearby/internal/interfaces"
)

// VariablesFileName is the file read from the variables directory
const VariablesFileName = "variables.toml"

// variableEntry is one table of variables.toml:
//
//	[places-host]
//	value = "places.example.com"
//	description = "optional description"
type variableEntry struct {
	Value       string `toml:"value"`
	Description string `toml:"description"`
}

// LoadVariables seeds kv from dirPath/variables.toml. A missing file is not an
// error; entries with an empty value are skipped. It returns the number of
// variables stored.
func LoadVariables(ctx context.Context, kv interfaces.KeyValueStorage, dirPath string, logger arbor.ILogger) (int, error) {
	filePath := filepath.Join(dirPath, VariablesFileName)

	content, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		logger.Debug().Str("file", filePath).Msg("No variables file found")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	var entries map[string]variableEntry
	if err := toml.Unmarshal(content, &entries); err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	loaded, skipped := 0, 0
	for key, entry := range entries {
		if entry.Value == "" {
			logger.Warn().Str("key", key).Msg("Skipping variable with empty value")
			skipped++
			continue
		}

		description := entry.Description
		if description == "" {
			description = "Loaded from " + VariablesFileName
		}

		if _, err := kv.Upsert(ctx, key, entry.Value, description); err != nil {
			return loaded, fmt.Errorf("failed to store variable %s: %w", key, err)
		}
		loaded++
	}

	logger.Debug().
		Str("file", filePath).
		Int("loaded", loaded).
		Int("skipped", skipped).
		Msg("Loaded variables")

	return loaded, nil
}
