package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"flightstatus-oracle/internal/domain/entity"
)

func TestFlightRecordDocumentLayout(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := testRecord("AA1", "2025-06-15", "AA", 42)

	raw, err := bson.Marshal(newFlightRecordDocument(rec, now))
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))

	// the unique index and the hydration sort read these at the top level
	assert.Equal(t, "AA1", doc["flightNumber"])
	assert.Equal(t, "2025-06-15", doc["scheduledDate"])
	assert.Equal(t, "AA", doc["carrierCode"])
	assert.Equal(t, int64(42), doc["seq"])
	for _, field := range []string{"flightData", "utcTimes", "status", "marketedSegments", "updatedAt"} {
		assert.Contains(t, doc, field)
	}
	assert.NotContains(t, doc, "record")

	assert.Equal(t, "LAX", bson.Raw(raw).Lookup("flightData", "arrivalAirport").StringValue())
	assert.Equal(t, "DL456", bson.Raw(raw).Lookup("marketedSegments", "0", "marketingFlightNumber").StringValue())

	for field := range keyFilter(rec.Key()) {
		assert.Contains(t, doc, field, "key filter field %s is stored at the top level", field)
	}
}

func TestFlightRecordDocumentRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := testRecord("AA1", "2025-06-15", "AA", 3)
	rec.Status.OutUTC = "2025-06-15T08:05:00Z"

	raw, err := bson.Marshal(newFlightRecordDocument(rec, now))
	require.NoError(t, err)

	var decoded flightRecordDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, rec, decoded.Record)
	assert.Equal(t, rec.Key(), entity.FlightKey{
		FlightNumber:  decoded.FlightNumber,
		ScheduledDate: decoded.ScheduledDate,
		CarrierCode:   decoded.CarrierCode,
	})
	assert.True(t, now.Equal(decoded.UpdatedAt))
}

func TestFlightRecordDocumentIgnoresStoreID(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"_id":           "65f0c0ffee",
		"flightNumber":  "AA1",
		"scheduledDate": "2025-06-15",
		"carrierCode":   "AA",
		"seq":           int64(9),
		"flightData":    bson.M{"flightNumber": "AA1", "scheduledDate": "2025-06-15", "carrierCode": "AA"},
	})
	require.NoError(t, err)

	var decoded flightRecordDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, int64(9), decoded.Record.Seq)
	assert.Equal(t, "AA1", decoded.Record.Data.FlightNumber)
	assert.Empty(t, decoded.Record.Segments)
}

func TestCurrentStatusDocumentUsesFlightNumberAsID(t *testing.T) {
	raw, err := bson.Marshal(entity.CurrentStatus{FlightNumber: "AA1", Status: "Delayed"})
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, bson.M{"_id": "AA1", "status": "Delayed"}, doc)
}
