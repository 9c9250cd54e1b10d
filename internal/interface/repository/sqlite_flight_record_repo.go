package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"flightstatus-oracle/internal/domain/entity"
	"flightstatus-oracle/internal/domain/repository"
)

// SQLiteFlightRecordRepository implements FlightRecordRepository on SQLite
type SQLiteFlightRecordRepository struct {
	db *sql.DB
}

var _ repository.FlightRecordRepository = (*SQLiteFlightRecordRepository)(nil)

// NewSQLiteFlightRecordRepository creates the schema if needed and returns the repository
func NewSQLiteFlightRecordRepository(ctx context.Context, db *sql.DB) (*SQLiteFlightRecordRepository, error) {
	if err := createFlightSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteFlightRecordRepository{db: db}, nil
}

func createFlightSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS flight_records (
		flight_number TEXT NOT NULL,
		scheduled_date TEXT NOT NULL,
		carrier_code TEXT NOT NULL,
		seq INTEGER NOT NULL,
		flight_data TEXT NOT NULL,
		utc_times TEXT NOT NULL,
		status TEXT NOT NULL,
		segments TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (flight_number, scheduled_date, carrier_code)
	);

	CREATE INDEX IF NOT EXISTS idx_flight_records_seq ON flight_records(seq);

	CREATE TABLE IF NOT EXISTS current_statuses (
		flight_number TEXT PRIMARY KEY,
		status TEXT NOT NULL
	);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertMany writes all records and current statuses in one transaction
func (r *SQLiteFlightRecordRepository) UpsertMany(ctx context.Context, records []entity.FlightRecord, statuses []entity.CurrentStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, record := range records {
		values, err := encodeRecord(record)
		if err != nil {
			return err
		}

		_, err = sq.Insert("flight_records").
			Columns("flight_number", "scheduled_date", "carrier_code", "seq", "flight_data", "utc_times", "status", "segments", "updated_at").
			Values(record.Data.FlightNumber, record.Data.ScheduledDate, record.Data.CarrierCode, record.Seq,
				values[0], values[1], values[2], values[3], now).
			Suffix(`ON CONFLICT(flight_number, scheduled_date, carrier_code) DO UPDATE SET
				flight_data = excluded.flight_data,
				utc_times = excluded.utc_times,
				status = excluded.status,
				segments = excluded.segments,
				updated_at = excluded.updated_at`).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("upsert flight record %s/%s/%s: %w",
				record.Data.FlightNumber, record.Data.ScheduledDate, record.Data.CarrierCode, err)
		}
	}

	for _, s := range statuses {
		if err := upsertCurrentStatus(ctx, tx, s); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit flight records: %w", err)
	}
	return nil
}

// UpdateStatus overwrites the status block of one record and the flight current status
func (r *SQLiteFlightRecordRepository) UpdateStatus(ctx context.Context, key entity.FlightKey, status entity.FlightStatus, current entity.CurrentStatus) error {
	encoded, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := sq.Update("flight_records").
		Set("status", string(encoded)).
		Set("updated_at", time.Now().UTC().Format(time.RFC3339Nano)).
		Where(sq.Eq{
			"flight_number":  key.FlightNumber,
			"scheduled_date": key.ScheduledDate,
			"carrier_code":   key.CarrierCode,
		}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update flight status: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update flight status: %w", entity.NewFlightNotFound(key.FlightNumber, key.ScheduledDate, key.CarrierCode))
	}

	if err := upsertCurrentStatus(ctx, tx, current); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status update: %w", err)
	}
	return nil
}

func upsertCurrentStatus(ctx context.Context, tx *sql.Tx, s entity.CurrentStatus) error {
	_, err := sq.Insert("current_statuses").
		Columns("flight_number", "status").
		Values(s.FlightNumber, s.Status).
		Suffix("ON CONFLICT(flight_number) DO UPDATE SET status = excluded.status").
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("upsert current status %s: %w", s.FlightNumber, err)
	}
	return nil
}

// FindAll returns every record ordered by insertion sequence
func (r *SQLiteFlightRecordRepository) FindAll(ctx context.Context) ([]entity.FlightRecord, error) {
	rows, err := sq.Select("seq", "flight_data", "utc_times", "status", "segments").
		From("flight_records").
		OrderBy("seq ASC").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query flight records: %w", err)
	}
	defer rows.Close()

	var records []entity.FlightRecord
	for rows.Next() {
		var (
			record                        entity.FlightRecord
			data, times, status, segments string
		)
		if err := rows.Scan(&record.Seq, &data, &times, &status, &segments); err != nil {
			return nil, fmt.Errorf("scan flight record: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &record.Data); err != nil {
			return nil, fmt.Errorf("unmarshal flight data: %w", err)
		}
		if err := json.Unmarshal([]byte(times), &record.UTCTimes); err != nil {
			return nil, fmt.Errorf("unmarshal utc times: %w", err)
		}
		if err := json.Unmarshal([]byte(status), &record.Status); err != nil {
			return nil, fmt.Errorf("unmarshal status: %w", err)
		}
		if err := json.Unmarshal([]byte(segments), &record.Segments); err != nil {
			return nil, fmt.Errorf("unmarshal segments: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flight records: %w", err)
	}

	return records, nil
}

// FindCurrentStatuses returns the current status of every known flight number
func (r *SQLiteFlightRecordRepository) FindCurrentStatuses(ctx context.Context) ([]entity.CurrentStatus, error) {
	rows, err := sq.Select("flight_number", "status").
		From("current_statuses").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query current statuses: %w", err)
	}
	defer rows.Close()

	var statuses []entity.CurrentStatus
	for rows.Next() {
		var s entity.CurrentStatus
		if err := rows.Scan(&s.FlightNumber, &s.Status); err != nil {
			return nil, fmt.Errorf("scan current status: %w", err)
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// encodeRecord returns the JSON columns of a record: data, times, status, segments
func encodeRecord(record entity.FlightRecord) ([4]string, error) {
	var out [4]string
	segments := record.Segments
	if segments == nil {
		segments = []entity.MarketingSegment{}
	}
	for i, v := range []interface{}{record.Data, record.UTCTimes, record.Status, segments} {
		b, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("marshal flight record: %w", err)
		}
		out[i] = string(b)
	}
	return out, nil
}
