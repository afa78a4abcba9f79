// Package realtime fans new notifications out to connected clients.
// Each user has a subject of their own; subscribers only ever see the
// notifications addressed to them.
package realtime

import (
	"context"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/domain"
)

// Broker publishes notifications and delivers them to live subscribers.
type Broker interface {
	// Publish delivers n to every current subscriber of n.UserID.
	// Subscribers that are not keeping up miss the message.
	Publish(ctx context.Context, n domain.Notification) error
	// Subscribe returns a channel of notifications for userID. The channel is
	// closed when ctx is done or the broker shuts down.
	Subscribe(ctx context.Context, userID uuid.UUID) (<-chan domain.Notification, error)
	Close() error
}

// subscriberBuffer is how many undelivered notifications a subscriber may
// hold before new ones are dropped.
const subscriberBuffer = 16

// Subject returns the per-user subject notifications are published on.
func Subject(userID uuid.UUID) string {
	return "notifications." + userID.String()
}
