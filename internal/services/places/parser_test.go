package places

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/nearby/internal/models"
)

const fullPlacePayload = `{
  "place": {
    "id": "venue-1",
    "name": "Blue Bottle Coffee",
    "countryCode": "US",
    "contactInfo": {"phoneNumber": {"phoneNumber": "+1 415 555 0100"}},
    "address": {
      "address1": "66 Mint St",
      "locality": "San Francisco",
      "region": "CA",
      "postalCode": "94103",
      "country": "United States"
    },
    "openingHours": {
      "dayHours": [
        {"day": "MONDAY", "hours": [{"start": {"hour": 7, "minute": 30}, "end": {"hour": 18}}]},
        {"day": "SUNDAY", "hours": []}
      ],
      "timeZone": "America/Los_Angeles"
    },
    "geometry": {"centroid": {"lat": 37.7825, "lng": -122.4075}}
  }
}`

func TestParsePlace_FullPayload(t *testing.T) {
	info, err := ParsePlace([]byte(fullPlacePayload), "Coffee Shop")
	require.NoError(t, err)

	assert.Equal(t, "venue-1", info.PlaceID)
	assert.Equal(t, "Coffee Shop", info.Category)
	assert.Equal(t, "Blue Bottle Coffee", info.Name)
	assert.Equal(t, "+1 415 555 0100", info.PhoneNumber)
	assert.Equal(t, models.Address{
		StreetAddress: "66 Mint St",
		Locality:      "San Francisco",
		Region:        "CA",
		PostalCode:    "94103",
		Country:       "United States",
		CountryCode:   "US",
	}, info.Address)
	assert.Equal(t, "America/Los_Angeles", info.OpeningHours.TimeZone)
	require.Len(t, info.OpeningHours.DayHours, 2)
	assert.Equal(t, "MONDAY", info.OpeningHours.DayHours[0].Day)
	assert.Equal(t, []models.TimeInterval{{
		StartHour: models.Time{Hour: 7, Minute: 30},
		EndHour:   models.Time{Hour: 18, Minute: 0},
	}}, info.OpeningHours.DayHours[0].Hours)
	assert.NotNil(t, info.OpeningHours.DayHours[1].Hours)
	assert.Empty(t, info.OpeningHours.DayHours[1].Hours)
	assert.Equal(t, models.Coordinate{Latitude: 37.7825, Longitude: -122.4075}, info.Centroid)
}

func TestParsePlace_FillsDefaults(t *testing.T) {
	payload := `{"place": {
		"id": "venue-2",
		"name": "City Museum",
		"contactInfo": {},
		"address": {"address1": "1 Main St"},
		"geometry": {"centroid": {"lat": 1.5, "lng": 2.5}}
	}}`

	info, err := ParsePlace([]byte(payload), "Museum")
	require.NoError(t, err)

	assert.Equal(t, "", info.PhoneNumber)
	assert.Equal(t, "", info.OpeningHours.TimeZone)
	assert.NotNil(t, info.OpeningHours.DayHours)
	assert.Empty(t, info.OpeningHours.DayHours)
	assert.Equal(t, "", info.Address.CountryCode)
}

func TestParsePlace_MissingContactInfo(t *testing.T) {
	payload := `{"place": {
		"id": "venue-3",
		"name": "Park",
		"address": {},
		"openingHours": {"dayHours": [{"day": "TUESDAY", "hours": [{}]}]},
		"geometry": {"centroid": {"lat": 0, "lng": 0}}
	}}`

	info, err := ParsePlace([]byte(payload), "Park")
	require.NoError(t, err)

	assert.Equal(t, "", info.PhoneNumber)
	require.Len(t, info.OpeningHours.DayHours, 1)
	assert.Equal(t, []models.TimeInterval{{}}, info.OpeningHours.DayHours[0].Hours)
}

func TestParsePlace_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		field   string
	}{
		{"not json", `{"place": `, ""},
		{"no place", `{"other": {}}`, "place"},
		{"no id", `{"place": {"name": "x", "address": {}, "geometry": {"centroid": {"lat": 1, "lng": 1}}}}`, "place.id"},
		{"no name", `{"place": {"id": "x", "address": {}, "geometry": {"centroid": {"lat": 1, "lng": 1}}}}`, "place.name"},
		{"no address", `{"place": {"id": "x", "name": "x", "geometry": {"centroid": {"lat": 1, "lng": 1}}}}`, "place.address"},
		{"no centroid", `{"place": {"id": "x", "name": "x", "address": {}, "geometry": {}}}`, "place.geometry.centroid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ParsePlace([]byte(tt.payload), "Cafe")
			require.Error(t, err)
			assert.Nil(t, info)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			if tt.field != "" {
				assert.Contains(t, err.Error(), tt.field)
			}
		})
	}
}

func TestParsePlace_EmptyIDAndNameArePresent(t *testing.T) {
	payload := `{"place": {"id": "", "name": "", "address": {}, "geometry": {"centroid": {"lat": 1, "lng": 2}}}}`

	info, err := ParsePlace([]byte(payload), "Cafe")
	require.NoError(t, err)
	assert.Equal(t, "", info.PlaceID)
	assert.Equal(t, "", info.Name)
	assert.Equal(t, models.Coordinate{Latitude: 1, Longitude: 2}, info.Centroid)
}

func TestParsePlace_NullNameIsMissing(t *testing.T) {
	payload := `{"place": {"id": "x", "name": null, "address": {}, "geometry": {"centroid": {"lat": 1, "lng": 2}}}}`

	_, err := ParsePlace([]byte(payload), "Cafe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "place.name")
}
