package repository

import (
	"context"

	"flightstatus-oracle/internal/domain/entity"
)

// EventPublisher defines the outbound change feed
type EventPublisher interface {
	Publish(ctx context.Context, event entity.Event) error
	Close() error
}
