package repository

import (
	"context"

	"flightstatus-oracle/internal/domain/entity"
)

// SubscriptionRepository defines the durable storage for subscriptions
type SubscriptionRepository interface {
	Subscribe(ctx context.Context, sub entity.Subscription) error
	// UnsubscribeMany clears every given tuple in one transaction
	UnsubscribeMany(ctx context.Context, keys []entity.SubscriptionKey) error
	FindActive(ctx context.Context) ([]entity.Subscription, error)
}
