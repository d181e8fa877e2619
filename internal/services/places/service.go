package places

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nearby/internal/common"
	"github.com/ternarybob/nearby/internal/geo"
	"github.com/ternarybob/nearby/internal/interfaces"
	"github.com/ternarybob/nearby/internal/models"
	"github.com/ternarybob/nearby/internal/telemetry"
)

// nearbyPayload mirrors the get_nearby_places response body
type nearbyPayload struct {
	NearbyPlaces []models.RawPlace `json:"nearbyPlaces"`
}

var _ interfaces.PlacesService = (*Service)(nil)

// Service implements the PlacesService interface
type Service struct {
	config       *common.PlacesConfig
	client       interfaces.PlacesClient
	cache        *ProximityCache
	eventService interfaces.EventService
	logger       arbor.ILogger
}

// NewService creates a new places service. eventService may be nil.
func NewService(
	config *common.PlacesConfig,
	client interfaces.PlacesClient,
	eventService interfaces.EventService,
	logger arbor.ILogger,
) *Service {
	return &Service{
		config:       config,
		client:       client,
		cache:        NewProximityCache(geo.Distance),
		eventService: eventService,
		logger:       logger,
	}
}

// CacheSize returns the number of cached locations
func (s *Service) CacheSize() int {
	return s.cache.Len()
}

// GetNearbyPlacesInfo returns enriched venues near query.Location, serving
// from the proximity cache when a stored location lies within
// query.DistanceThreshold. Results are cached only after both stages succeed.
func (s *Service) GetNearbyPlacesInfo(ctx context.Context, query models.NearbyQuery) ([]models.PlaceInfo, error) {
	start := time.Now()
	limit := s.effectiveLimit(query.Limit)
	filter := s.effectiveFilter(query.Filter)

	if query.Location.IsOrigin() {
		s.logger.Debug().Msg("No valid location, returning empty result")
		telemetry.RecordCacheLookup("skipped")
		telemetry.ObserveQuery("empty", time.Since(start))
		return []models.PlaceInfo{}, nil
	}

	queryID := common.NewQueryID()

	if cached, ok := s.cache.Lookup(query.Location, query.DistanceThreshold); ok {
		telemetry.RecordCacheLookup("hit")
		telemetry.ObserveQuery("cache", time.Since(start))
		s.logger.Debug().
			Str("query_id", queryID).
			Str("location", query.Location.String()).
			Int("results", len(cached)).
			Msg("Nearby places served from cache")
		s.publishEvent(interfaces.EventNearbyCacheHit, map[string]interface{}{
			"query_id": queryID,
			"location": query.Location.String(),
			"results":  len(cached),
		})
		return cached, nil
	}
	telemetry.RecordCacheLookup("miss")

	s.logger.Info().
		Str("query_id", queryID).
		Str("location", query.Location.String()).
		Int("limit", limit).
		Str("filter", filter.String()).
		Msg("Fetching nearby places")

	raw, err := s.GetNearbyPlaces(ctx, query.Location, limit, filter)
	if err != nil {
		return nil, s.fail(queryID, query.Location, StageNearbySearch, err, start)
	}

	places, err := s.GetPlacesInfo(ctx, raw)
	if err != nil {
		return nil, s.fail(queryID, query.Location, StageDetailFetch, err, start)
	}

	s.cache.Store(query.Location, places)
	telemetry.SetCacheEntries(s.cache.Len())
	telemetry.ObserveQuery("fetched", time.Since(start))

	s.logger.Info().
		Str("query_id", queryID).
		Int("nearby", len(raw)).
		Int("venues", len(places)).
		Dur("duration", time.Since(start)).
		Msg("Nearby places fetched")
	s.publishEvent(interfaces.EventNearbyPlacesFetch, map[string]interface{}{
		"query_id": queryID,
		"location": query.Location.String(),
		"results":  len(places),
	})

	return places, nil
}

// GetNearbyPlaces runs the nearby search for location and keeps the places
// passing filter, in backend order
func (s *Service) GetNearbyPlaces(ctx context.Context, location models.Coordinate, limit int, filter models.CategoryFilter) ([]models.RawPlace, error) {
	resp, err := s.client.FetchNearby(ctx, models.NearbyRequest{
		Latitude:     location.Latitude,
		Longitude:    location.Longitude,
		RadiusMeters: s.config.SearchRadiusMeters,
		Limit:        s.effectiveLimit(limit),
	})
	if err != nil {
		return nil, &TransportError{Op: "fetch nearby places", Err: err}
	}

	var payload nearbyPayload
	if err := resp.BodyAsJSON(&payload); err != nil {
		return nil, &ParseError{Reason: "invalid nearby places body", Err: err}
	}

	places := make([]models.RawPlace, 0, len(payload.NearbyPlaces))
	for _, p := range payload.NearbyPlaces {
		if filter.Matches(p.CategoryName) {
			places = append(places, p)
		}
	}

	s.logger.Debug().
		Int("received", len(payload.NearbyPlaces)).
		Int("kept", len(places)).
		Msg("Filtered nearby places")

	return places, nil
}

type detailResult struct {
	index int
	place *models.PlaceInfo
	err   error
}

// GetPlacesInfo fetches and parses details for every venue in places
// concurrently. Non-venues are dropped. The first failure is returned without
// waiting for the remaining fetches, which run to completion on their own even
// when ctx is cancelled; ctx only bounds how long the caller waits.
func (s *Service) GetPlacesInfo(ctx context.Context, places []models.RawPlace) ([]models.PlaceInfo, error) {
	venues := make([]models.RawPlace, 0, len(places))
	for _, p := range places {
		if p.IsVenue() {
			venues = append(venues, p)
		}
	}

	// Fetches outlive the caller: a fail-fast return or a cancelled request
	// stops the wait below but never aborts siblings already in flight.
	fetchCtx := context.WithoutCancel(ctx)

	// Buffered so late siblings never block after an early return
	results := make(chan detailResult, len(venues))
	for i, venue := range venues {
		index, venue := i, venue
		common.SafeGoWithHandler(s.logger, "fetchPlaceInfo", func() {
			place, err := s.fetchPlaceInfo(fetchCtx, venue)
			results <- detailResult{index: index, place: place, err: err}
		}, func(recovered interface{}) {
			results <- detailResult{index: index, err: fmt.Errorf("panic fetching place %s: %v", venue.PlaceID, recovered)}
		})
	}

	infos := make([]models.PlaceInfo, len(venues))
	for range venues {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r := <-results:
			if r.err != nil {
				return nil, r.err
			}
			infos[r.index] = *r.place
		}
	}

	return infos, nil
}

func (s *Service) fetchPlaceInfo(ctx context.Context, venue models.RawPlace) (*models.PlaceInfo, error) {
	resp, err := s.client.FetchPlaceDetail(ctx, venue.PlaceID)
	if err != nil {
		return nil, &TransportError{Op: fmt.Sprintf("fetch place %s", venue.PlaceID), Err: err}
	}

	info, err := ParsePlace(resp.Body, venue.CategoryName)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (s *Service) effectiveLimit(limit int) int {
	if limit <= 0 {
		return s.config.DefaultLimit
	}
	return limit
}

func (s *Service) effectiveFilter(filter *models.CategoryFilter) models.CategoryFilter {
	if filter != nil {
		return *filter
	}
	if s.config.DisableFilter {
		return models.NoFilter()
	}
	return models.FilterCategories(s.config.DefaultFilter...)
}

func (s *Service) fail(queryID string, location models.Coordinate, stage Stage, err error, start time.Time) error {
	telemetry.ObserveQuery("error", time.Since(start))

	s.logger.Warn().
		Err(err).
		Str("query_id", queryID).
		Str("stage", string(stage)).
		Str("location", location.String()).
		Msg("Nearby places lookup failed")
	s.publishEvent(interfaces.EventNearbyPlacesFailed, map[string]interface{}{
		"query_id": queryID,
		"location": location.String(),
		"stage":    string(stage),
		"error":    err.Error(),
	})

	return &StageError{Stage: stage, Err: err}
}

// publishEvent publishes an event via the event service
func (s *Service) publishEvent(eventType interfaces.EventType, data map[string]interface{}) {
	if s.eventService == nil {
		return
	}

	data["timestamp"] = time.Now().Format(time.RFC3339)
	event := interfaces.Event{
		Type:    eventType,
		Payload: data,
	}
	if err := s.eventService.Publish(context.Background(), event); err != nil {
		s.logger.Warn().
			Err(err).
			Str("event_type", string(eventType)).
			Msg("Failed to publish event")
	}
}
