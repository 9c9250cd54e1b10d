package repository

import (
	"context"

	"flightstatus-oracle/internal/domain/entity"
)

// FlightRecordRepository defines the durable storage for flight records and the
// flight-number scoped current status
type FlightRecordRepository interface {
	// UpsertMany writes every record and current status or returns an error
	UpsertMany(ctx context.Context, records []entity.FlightRecord, statuses []entity.CurrentStatus) error
	UpdateStatus(ctx context.Context, key entity.FlightKey, status entity.FlightStatus, current entity.CurrentStatus) error
	// FindAll returns all records ordered by insertion sequence
	FindAll(ctx context.Context) ([]entity.FlightRecord, error)
	FindCurrentStatuses(ctx context.Context) ([]entity.CurrentStatus, error)
}
