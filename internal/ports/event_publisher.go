package ports

import (
	"context"

	"modqueue/internal/domain/moderation"
)

// EventPublisher hands committed transitions to the notification side.
// Implementations must not assume they run inside a transaction.
type EventPublisher interface {
	Publish(ctx context.Context, event moderation.TransitionEvent) error
}
