package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"flightstatus-oracle/internal/domain/entity"
	"flightstatus-oracle/internal/domain/repository"
)

// ClickHouseArchive appends every change feed event to the oracle_events table
type ClickHouseArchive struct {
	conn driver.Conn
}

var _ repository.EventPublisher = (*ClickHouseArchive)(nil)

// NewClickHouseArchive creates the events table if needed
func NewClickHouseArchive(ctx context.Context, conn driver.Conn) (*ClickHouseArchive, error) {
	err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS oracle_events (
			id           String,
			seq          UInt64,
			type         LowCardinality(String),
			occurred_at  DateTime64(3),
			payload      String
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(occurred_at)
		ORDER BY (type, occurred_at, id)`)
	if err != nil {
		return nil, fmt.Errorf("create oracle_events: %w", err)
	}
	return &ClickHouseArchive{conn: conn}, nil
}

// Publish inserts the event asynchronously. The server batches the insert.
func (a *ClickHouseArchive) Publish(ctx context.Context, event entity.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	err = a.conn.AsyncInsert(ctx,
		`INSERT INTO oracle_events (id, seq, type, occurred_at, payload) VALUES (?, ?, ?, ?, ?)`,
		false,
		event.ID, event.Seq, string(event.Type), event.OccurredAt, string(payload),
	)
	if err != nil {
		return fmt.Errorf("archive %s: %w", event.Type, err)
	}
	return nil
}

// Close closes the ClickHouse connection
func (a *ClickHouseArchive) Close() error {
	return a.conn.Close()
}
