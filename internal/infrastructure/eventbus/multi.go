package eventbus

import (
	"context"
	"errors"

	"flightstatus-oracle/internal/domain/entity"
	"flightstatus-oracle/internal/domain/repository"
)

// MultiPublisher fans every event out to all its publishers. Every publisher is
// tried and the failures are joined.
type MultiPublisher struct {
	publishers []repository.EventPublisher
}

var _ repository.EventPublisher = (*MultiPublisher)(nil)

// NewMultiPublisher skips nil publishers
func NewMultiPublisher(publishers ...repository.EventPublisher) *MultiPublisher {
	m := &MultiPublisher{}
	for _, p := range publishers {
		if p != nil {
			m.publishers = append(m.publishers, p)
		}
	}
	return m
}

func (m *MultiPublisher) Publish(ctx context.Context, event entity.Event) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiPublisher) Close() error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
