package providers

import (
	"context"

	"github.com/verifix/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to
// investigation status events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.InvestigationEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.InvestigationEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelSolutionPrefix is the prefix for solution-specific channels
	EventChannelSolutionPrefix = "solution:"

	// EventChannelAll carries every investigation event, regardless of
	// solution, for cross-cutting subscribers like cache invalidation
	EventChannelAll = "solutions:events"
)

// GetSolutionChannel returns the channel name for a specific solution
func GetSolutionChannel(solutionID string) string {
	return EventChannelSolutionPrefix + solutionID
}
