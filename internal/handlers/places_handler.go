package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nearby/internal/interfaces"
	"github.com/ternarybob/nearby/internal/models"
)

// PlacesHandler serves nearby place lookups
type PlacesHandler struct {
	placesService interfaces.PlacesService
	logger        arbor.ILogger
}

// NewPlacesHandler creates a new places handler
func NewPlacesHandler(placesService interfaces.PlacesService, logger arbor.ILogger) *PlacesHandler {
	return &PlacesHandler{
		placesService: placesService,
		logger:        logger,
	}
}

// NearbyHandler handles GET /api/places/nearby?lat=&lng=[&limit=][&threshold=][&filter=a,b][&no_filter=true]
func (h *PlacesHandler) NearbyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query, err := parseNearbyQuery(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	places, err := h.placesService.GetNearbyPlacesInfo(r.Context(), query)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("location", query.Location.String()).
			Msg("Nearby places lookup failed")
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, models.NearbyPlacesResult{
		Location:     query.Location,
		TotalResults: len(places),
		Places:       places,
	})
}

// CacheHandler handles GET /api/places/cache
func (h *PlacesHandler) CacheHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": h.placesService.CacheSize(),
	})
}

func parseNearbyQuery(r *http.Request) (models.NearbyQuery, error) {
	var query models.NearbyQuery

	lat, ok, err := queryFloat(r, "lat")
	if err != nil || !ok {
		return query, errors.New("lat is required and must be a number")
	}
	lng, ok, err := queryFloat(r, "lng")
	if err != nil || !ok {
		return query, errors.New("lng is required and must be a number")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return query, errors.New("lat must be within [-90, 90] and lng within [-180, 180]")
	}
	query.Location = models.Coordinate{Latitude: lat, Longitude: lng}

	limit, err := queryInt(r, "limit")
	if err != nil || limit < 0 {
		return query, errors.New("limit must be a non-negative integer")
	}
	query.Limit = limit

	threshold, ok, err := queryFloat(r, "threshold")
	if err != nil || (ok && threshold < 0) {
		return query, errors.New("threshold must be a non-negative number of metres")
	}
	if ok {
		query.DistanceThreshold = &threshold
	}

	if raw := r.URL.Query().Get("no_filter"); raw != "" {
		noFilter, err := strconv.ParseBool(raw)
		if err != nil {
			return query, errors.New("no_filter must be a boolean")
		}
		if noFilter {
			f := models.NoFilter()
			query.Filter = &f
			return query, nil
		}
	}

	if r.URL.Query().Has("filter") {
		f := models.FilterCategories(splitCSV(r.URL.Query().Get("filter"))...)
		query.Filter = &f
	}

	return query, nil
}
