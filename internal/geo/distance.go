// Package geo provides distance computations between coordinates.
package geo

import (
	"github.com/golang/geo/s2"

	"github.com/ternarybob/nearby/internal/models"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances
const EarthRadiusMeters = 6371008.8

// DistanceFunc returns the distance in metres between two coordinates
type DistanceFunc func(a, b models.Coordinate) float64

// Distance returns the great-circle distance in metres between a and b.
// The result is symmetric and never negative.
func Distance(a, b models.Coordinate) float64 {
	pa := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	pb := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return pa.Distance(pb).Radians() * EarthRadiusMeters
}
