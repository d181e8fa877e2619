package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	EventNearbyCacheHit     EventType = "nearby_places_cache_hit"
	EventNearbyPlacesFetch  EventType = "nearby_places_fetched"
	EventNearbyPlacesFailed EventType = "nearby_places_failed"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload map[string]interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages pub/sub event bus
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
