package places

import (
	"math"
	"slices"
	"sync"

	"github.com/ternarybob/nearby/internal/geo"
	"github.com/ternarybob/nearby/internal/models"
)

// ProximityCache maps previously queried coordinates to the places fetched for
// them and answers lookups for any coordinate within a distance threshold of a
// stored one. Entries never expire.
type ProximityCache struct {
	mu       sync.RWMutex
	entries  map[models.Coordinate][]models.PlaceInfo
	distance geo.DistanceFunc
}

// NewProximityCache creates an empty cache. A nil distance uses geo.Distance.
func NewProximityCache(distance geo.DistanceFunc) *ProximityCache {
	if distance == nil {
		distance = geo.Distance
	}
	return &ProximityCache{
		entries:  make(map[models.Coordinate][]models.PlaceInfo),
		distance: distance,
	}
}

// Lookup returns the places stored under the cached coordinate nearest to query,
// provided it lies within threshold metres. A nil threshold never hits.
func (c *ProximityCache) Lookup(query models.Coordinate, threshold *float64) ([]models.PlaceInfo, bool) {
	if threshold == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.entries) == 0 {
		return nil, false
	}

	nearestDistance := math.Inf(1)
	var nearest models.Coordinate
	for key := range c.entries {
		d := c.distance(query, key)
		if d < nearestDistance || (d == nearestDistance && coordinateLess(key, nearest)) {
			nearestDistance = d
			nearest = key
		}
	}

	// NaN thresholds compare false and must miss
	if !(nearestDistance <= *threshold) {
		return nil, false
	}
	return clonePlaces(c.entries[nearest]), true
}

// Store inserts or overwrites the entry for exactly key
func (c *ProximityCache) Store(key models.Coordinate, places []models.PlaceInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = clonePlaces(places)
}

// Len returns the number of cached coordinates
func (c *ProximityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func coordinateLess(a, b models.Coordinate) bool {
	if a.Latitude != b.Latitude {
		return a.Latitude < b.Latitude
	}
	return a.Longitude < b.Longitude
}

// clonePlaces copies the slices inside each place so cached entries are never shared
func clonePlaces(places []models.PlaceInfo) []models.PlaceInfo {
	out := make([]models.PlaceInfo, len(places))
	for i, p := range places {
		out[i] = p
		out[i].OpeningHours.DayHours = make([]models.DayHours, len(p.OpeningHours.DayHours))
		for j, dh := range p.OpeningHours.DayHours {
			out[i].OpeningHours.DayHours[j] = models.DayHours{Day: dh.Day, Hours: slices.Clone(dh.Hours)}
			if out[i].OpeningHours.DayHours[j].Hours == nil {
				out[i].OpeningHours.DayHours[j].Hours = []models.TimeInterval{}
			}
		}
	}
	return out
}
