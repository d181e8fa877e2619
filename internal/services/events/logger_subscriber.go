package events

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nearby/internal/interfaces"
)

// NewLoggerSubscriber creates an event handler that logs nearby lookup events
func NewLoggerSubscriber(logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		logEvent := logger.Debug().
			Str("event_type", string(event.Type))

		if queryID, ok := event.Payload["query_id"].(string); ok {
			logEvent = logEvent.Str("query_id", queryID)
		}
		if location, ok := event.Payload["location"].(string); ok {
			logEvent = logEvent.Str("location", location)
		}
		if results, ok := event.Payload["results"].(int); ok {
			logEvent = logEvent.Int("results", results)
		}
		if stage, ok := event.Payload["stage"].(string); ok {
			logEvent = logEvent.Str("stage", stage)
		}

		logEvent.Msg("Event published")

		return nil
	}
}

// SubscribeLoggerToAllEvents subscribes the logger to every nearby event type
func SubscribeLoggerToAllEvents(eventService interfaces.EventService, logger arbor.ILogger) error {
	subscriber := NewLoggerSubscriber(logger)

	eventTypes := []interfaces.EventType{
		interfaces.EventNearbyCacheHit,
		interfaces.EventNearbyPlacesFetch,
		interfaces.EventNearbyPlacesFailed,
	}

	for _, eventType := range eventTypes {
		if err := eventService.Subscribe(eventType, subscriber); err != nil {
			return fmt.Errorf("failed to subscribe logger to event type %s: %w", eventType, err)
		}
	}

	logger.Debug().
		Int("event_type_count", len(eventTypes)).
		Msg("Logger subscribed to all event types")

	return nil
}
