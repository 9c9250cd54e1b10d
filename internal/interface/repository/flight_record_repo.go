package repository

import (
	"context"
	"fmt"
	"time"

	"flightstatus-oracle/internal/domain/entity"
	"flightstatus-oracle/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoFlightRecordRepository implements FlightRecordRepository
type MongoFlightRecordRepository struct {
	records  *mongo.Collection
	statuses *mongo.Collection
}

var _ repository.FlightRecordRepository = (*MongoFlightRecordRepository)(nil)

// flightRecordDocument is the stored shape of a flight record. The key parts are
// lifted to the top level for the unique index.
type flightRecordDocument struct {
	FlightNumber  string              `bson:"flightNumber"`
	ScheduledDate string              `bson:"scheduledDate"`
	CarrierCode   string              `bson:"carrierCode"`
	Record        entity.FlightRecord `bson:",inline"`
	UpdatedAt     time.Time           `bson:"updatedAt"`
}

// NewMongoFlightRecordRepository creates a new flight record repository
func NewMongoFlightRecordRepository(ctx context.Context, db *mongo.Database) (*MongoFlightRecordRepository, error) {
	records := db.Collection("flight_records")

	// Create unique index on the composite key
	keyIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "flightNumber", Value: 1}, {Key: "scheduledDate", Value: 1}, {Key: "carrierCode", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := records.Indexes().CreateOne(ctx, keyIndex); err != nil {
		return nil, fmt.Errorf("create flight record key index: %w", err)
	}

	// Create index on seq for ordered loading
	seqIndex := mongo.IndexModel{
		Keys: bson.M{"seq": 1},
	}
	if _, err := records.Indexes().CreateOne(ctx, seqIndex); err != nil {
		return nil, fmt.Errorf("create flight record seq index: %w", err)
	}

	return &MongoFlightRecordRepository{
		records:  records,
		statuses: db.Collection("current_statuses"),
	}, nil
}

func newFlightRecordDocument(record entity.FlightRecord, now time.Time) flightRecordDocument {
	key := record.Key()
	return flightRecordDocument{
		FlightNumber:  key.FlightNumber,
		ScheduledDate: key.ScheduledDate,
		CarrierCode:   key.CarrierCode,
		Record:        record,
		UpdatedAt:     now,
	}
}

func keyFilter(key entity.FlightKey) bson.M {
	return bson.M{
		"flightNumber":  key.FlightNumber,
		"scheduledDate": key.ScheduledDate,
		"carrierCode":   key.CarrierCode,
	}
}

// UpsertMany creates or overwrites records and current statuses with ordered bulk writes
func (r *MongoFlightRecordRepository) UpsertMany(ctx context.Context, records []entity.FlightRecord, statuses []entity.CurrentStatus) error {
	if len(records) > 0 {
		now := time.Now()
		models := make([]mongo.WriteModel, 0, len(records))
		for _, record := range records {
			models = append(models, mongo.NewReplaceOneModel().
				SetFilter(keyFilter(record.Key())).
				SetReplacement(newFlightRecordDocument(record, now)).
				SetUpsert(true))
		}

		if _, err := r.records.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
			return fmt.Errorf("bulk upsert flight records: %w", err)
		}
	}

	if len(statuses) > 0 {
		models := make([]mongo.WriteModel, 0, len(statuses))
		for _, s := range statuses {
			models = append(models, mongo.NewReplaceOneModel().
				SetFilter(bson.M{"_id": s.FlightNumber}).
				SetReplacement(s).
				SetUpsert(true))
		}

		if _, err := r.statuses.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
			return fmt.Errorf("bulk upsert current statuses: %w", err)
		}
	}

	return nil
}

// UpdateStatus overwrites the status block of one record and the flight current status
func (r *MongoFlightRecordRepository) UpdateStatus(ctx context.Context, key entity.FlightKey, status entity.FlightStatus, current entity.CurrentStatus) error {
	result, err := r.records.UpdateOne(
		ctx,
		keyFilter(key),
		bson.M{"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("update flight status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("update flight status: %w", entity.NewFlightNotFound(key.FlightNumber, key.ScheduledDate, key.CarrierCode))
	}

	_, err = r.statuses.ReplaceOne(
		ctx,
		bson.M{"_id": current.FlightNumber},
		current,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("update current status: %w", err)
	}
	return nil
}

// FindAll returns every record ordered by insertion sequence
func (r *MongoFlightRecordRepository) FindAll(ctx context.Context) ([]entity.FlightRecord, error) {
	cursor, err := r.records.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find flight records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []entity.FlightRecord
	for cursor.Next(ctx) {
		var doc flightRecordDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode flight record: %w", err)
		}
		records = append(records, doc.Record)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate flight records: %w", err)
	}

	return records, nil
}

// FindCurrentStatuses returns the current status of every known flight number
func (r *MongoFlightRecordRepository) FindCurrentStatuses(ctx context.Context) ([]entity.CurrentStatus, error) {
	cursor, err := r.statuses.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find current statuses: %w", err)
	}

	var statuses []entity.CurrentStatus
	if err := cursor.All(ctx, &statuses); err != nil {
		return nil, fmt.Errorf("decode current statuses: %w", err)
	}
	return statuses, nil
}
