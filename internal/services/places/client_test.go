package places

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nearby/internal/models"
)

func TestClient_FetchNearby(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/places/get_nearby_places", r.URL.Path)
		assert.Equal(t, "37.5", r.URL.Query().Get("lat"))
		assert.Equal(t, "-122.25", r.URL.Query().Get("lng"))
		assert.Equal(t, "65", r.URL.Query().Get("gps_accuracy_m"))
		assert.Equal(t, "10", r.URL.Query().Get("places_limit"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"nearbyPlaces":[{"placeId":"p1","categoryName":"Cafe","placeTypeEnum":"VENUE"}]}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL+"/places"), WithLogger(arbor.NewLogger()))
	resp, err := client.FetchNearby(context.Background(), models.NearbyRequest{
		Latitude:     37.5,
		Longitude:    -122.25,
		RadiusMeters: 65,
		Limit:        10,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload nearbyPayload
	require.NoError(t, resp.BodyAsJSON(&payload))
	require.Len(t, payload.NearbyPlaces, 1)
	assert.Equal(t, "p1", payload.NearbyPlaces[0].PlaceID)
	assert.True(t, payload.NearbyPlaces[0].IsVenue())
}

func TestClient_FetchPlaceDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get_place", r.URL.Path)
		assert.Equal(t, "venue-1", r.URL.Query().Get("place_id"))
		w.Write([]byte(fullPlacePayload))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	resp, err := client.FetchPlaceDetail(context.Background(), "venue-1")
	require.NoError(t, err)

	info, err := ParsePlace(resp.Body, "Cafe")
	require.NoError(t, err)
	assert.Equal(t, "venue-1", info.PlaceID)
	assert.Contains(t, resp.BodyAsString(), "Blue Bottle")
}

func TestClient_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	resp, err := client.FetchPlaceDetail(context.Background(), "venue-1")
	require.Error(t, err)
	assert.Nil(t, resp)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "/get_place", apiErr.Endpoint)
	assert.Contains(t, apiErr.Message, "backend unavailable")
}

func TestClient_RespectsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(
		WithBaseURL(server.URL),
		WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}),
		WithRateLimit(100),
	)
	_, err := client.FetchNearby(context.Background(), models.NearbyRequest{Latitude: 1, Longitude: 1, RadiusMeters: 65, Limit: 1})
	assert.Error(t, err)
}

func TestClient_CancelledContext(t *testing.T) {
	client := NewClient(WithBaseURL("http://127.0.0.1:0"), WithRateLimit(1))
	// drain the single token so Wait has to block
	require.NoError(t, client.limiter.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchPlaceDetail(ctx, "venue-1")
	assert.Error(t, err)
}
