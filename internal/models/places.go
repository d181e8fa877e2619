package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// PlaceTypeVenue marks a physical, visitable place. Only venues are enriched.
const PlaceTypeVenue = "VENUE"

// Coordinate is a latitude/longitude pair in degrees.
// It is comparable and used directly as a cache key.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsOrigin reports whether the coordinate is exactly (0,0), which callers use
// to signal that no valid location is available.
func (c Coordinate) IsOrigin() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%f,%f", c.Latitude, c.Longitude)
}

// RawPlace is a nearby-search result as returned by the backend
type RawPlace struct {
	PlaceID       string `json:"placeId"`
	Name          string `json:"name,omitempty"`
	CategoryName  string `json:"categoryName"`
	PlaceTypeEnum string `json:"placeTypeEnum"`
}

// IsVenue reports whether the place should receive detail enrichment
func (p RawPlace) IsVenue() bool {
	return p.PlaceTypeEnum == PlaceTypeVenue
}

// PlaceInfo is the normalized, enriched record returned to callers
type PlaceInfo struct {
	PlaceID      string       `json:"placeId"`
	Category     string       `json:"category"`
	Name         string       `json:"name"`
	PhoneNumber  string       `json:"phone_number"`
	Address      Address      `json:"address"`
	OpeningHours OpeningHours `json:"opening_hours"`
	Centroid     Coordinate   `json:"centroid"`
}

// Address of a place
type Address struct {
	StreetAddress string `json:"street_address"`
	Locality      string `json:"locality"`
	Region        string `json:"region"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
	CountryCode   string `json:"country_code"`
}

// OpeningHours lists opening intervals per day
type OpeningHours struct {
	DayHours []DayHours `json:"dayHours"`
	TimeZone string     `json:"time_zone"`
}

// DayHours holds the opening intervals of a single day
type DayHours struct {
	Day   string         `json:"day"`
	Hours []TimeInterval `json:"hours"`
}

// TimeInterval is an opening interval within a day
type TimeInterval struct {
	StartHour Time `json:"start_hour"`
	EndHour   Time `json:"end_hour"`
}

// Time is a wall-clock time of day
type Time struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// CategoryFilter selects which nearby places are kept by category name.
// Build one with NoFilter or FilterCategories; the zero value keeps nothing.
type CategoryFilter struct {
	all        bool
	categories []string
}

// NoFilter passes every backend result through unfiltered
func NoFilter() CategoryFilter {
	return CategoryFilter{all: true}
}

// FilterCategories keeps places whose category name contains any of the given substrings
func FilterCategories(categories ...string) CategoryFilter {
	return CategoryFilter{categories: slices.Clone(categories)}
}

// IsNoFilter reports whether this is the pass-through filter
func (f CategoryFilter) IsNoFilter() bool {
	return f.all
}

// Categories returns a copy of the category substrings (nil for NoFilter)
func (f CategoryFilter) Categories() []string {
	return slices.Clone(f.categories)
}

// Matches reports whether a place with the given category name passes the filter.
// Entries are checked in order and the first match wins.
func (f CategoryFilter) Matches(categoryName string) bool {
	if f.all {
		return true
	}
	for _, c := range f.categories {
		if strings.Contains(categoryName, c) {
			return true
		}
	}
	return false
}

func (f CategoryFilter) String() string {
	if f.all {
		return "*"
	}
	return strings.Join(f.categories, ",")
}

// NearbyQuery holds the inputs of a nearby places lookup.
// Zero or nil fields fall back to configured defaults.
type NearbyQuery struct {
	Location Coordinate
	// Limit caps the backend result count; <= 0 uses the configured default
	Limit int
	// DistanceThreshold in metres within which a cached result may be reused.
	// nil disables cache hits for this query.
	DistanceThreshold *float64
	// Filter nil uses the configured default filter
	Filter *CategoryFilter
}

// NearbyRequest is the parameter set of a remote nearby-search call
type NearbyRequest struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters int
	Limit        int
}

// PlacesResponse is the raw response of a remote places call
type PlacesResponse struct {
	StatusCode int
	Body       []byte
}

// BodyAsJSON decodes the response body into v
func (r *PlacesResponse) BodyAsJSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// BodyAsString returns the response body as text
func (r *PlacesResponse) BodyAsString() string {
	return string(r.Body)
}

// NearbyPlacesResult is the API representation of a nearby lookup
type NearbyPlacesResult struct {
	Location     Coordinate  `json:"location"`
	TotalResults int         `json:"total_results"`
	Places       []PlaceInfo `json:"places"`
}
