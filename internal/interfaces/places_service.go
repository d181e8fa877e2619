package interfaces

import (
	"context"

	"github.com/ternarybob/nearby/internal/models"
)

// PlacesService resolves nearby places with category filtering, detail
// enrichment and proximity caching.
type PlacesService interface {
	// GetNearbyPlacesInfo returns enriched venues near query.Location.
	//
	// Parameters:
	//   - ctx: Context for cancellation of remote calls
	//   - query: Location plus optional limit, cache distance threshold and filter
	//
	// Returns:
	//   - []models.PlaceInfo: Venues in backend order; empty for the (0,0) location
	//   - error: *places.StageError naming the failed stage
	GetNearbyPlacesInfo(ctx context.Context, query models.NearbyQuery) ([]models.PlaceInfo, error)

	// CacheSize returns the number of cached locations
	CacheSize() int
}

// PlacesClient is the transport to the remote places backend.
// Both calls fail independently and are safe for concurrent use.
type PlacesClient interface {
	FetchNearby(ctx context.Context, req models.NearbyRequest) (*models.PlacesResponse, error)
	FetchPlaceDetail(ctx context.Context, placeID string) (*models.PlacesResponse, error)
}
