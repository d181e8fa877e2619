package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the effective places settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.Print("Nearby", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("environment", config.Environment).
		Str("places_base_url", config.Places.BaseURL).
		Int("search_radius_m", config.Places.SearchRadiusMeters).
		Int("default_limit", config.Places.DefaultLimit).
		Bool("filter_disabled", config.Places.DisableFilter).
		Msg("Nearby places service")
}
