// internal/domain/entity/event.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of a change feed event
type EventType string

const (
	EventFlightDataSet        EventType = "FlightDataSet"
	EventFlightStatusUpdate   EventType = "FlightStatusUpdate"
	EventSubscriptionDetails  EventType = "SubscriptionDetails"
	EventSubscriptionsRemoved EventType = "SubscriptionsRemoved"
)

// Transport metadata keys
const (
	MetadataEventType = "event_type"
	MetadataEventSeq  = "event_seq"
)

// Event is one entry of the change feed. Seq increases by one per published
// event within a process, so consumers can detect gaps and reorder.
type Event struct {
	ID         string      `json:"id"`
	Seq        uint64      `json:"seq"`
	Type       EventType   `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// NewEvent stamps a payload with a fresh id and time
func NewEvent(eventType EventType, occurredAt time.Time, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: occurredAt.UTC(),
		Payload:    payload,
	}
}

// FlightDataSetPayload is emitted on every insertion
type FlightDataSetPayload struct {
	FlightNumber          string `json:"flight_number"`
	ScheduledDate         string `json:"scheduled_date"`
	CarrierCode           string `json:"carrier_code"`
	ArrivalCity           string `json:"arrival_city"`
	DepartureCity         string `json:"departure_city"`
	ArrivalAirport        string `json:"arrival_airport"`
	DepartureAirport      string `json:"departure_airport"`
	ArrivalGate           string `json:"arrival_gate"`
	DepartureGate         string `json:"departure_gate"`
	FlightStatus          string `json:"flight_status"`
	ActualArrivalUTC      string `json:"actual_arrival_utc"`
	ActualDepartureUTC    string `json:"actual_departure_utc"`
	EstimatedArrivalUTC   string `json:"estimated_arrival_utc"`
	EstimatedDepartureUTC string `json:"estimated_departure_utc"`
	ScheduledArrivalUTC   string `json:"scheduled_arrival_utc"`
	ScheduledDepartureUTC string `json:"scheduled_departure_utc"`
}

// NewFlightDataSetPayload projects a record onto its insertion event
func NewFlightDataSetPayload(r FlightRecord) FlightDataSetPayload {
	return FlightDataSetPayload{
		FlightNumber:          r.Data.FlightNumber,
		ScheduledDate:         r.Data.ScheduledDate,
		CarrierCode:           r.Data.CarrierCode,
		ArrivalCity:           r.Data.ArrivalCity,
		DepartureCity:         r.Data.DepartureCity,
		ArrivalAirport:        r.Data.ArrivalAirport,
		DepartureAirport:      r.Data.DepartureAirport,
		ArrivalGate:           r.Data.ArrivalGate,
		DepartureGate:         r.Data.DepartureGate,
		FlightStatus:          r.Data.FlightStatus,
		ActualArrivalUTC:      r.UTCTimes.ActualArrivalUTC,
		ActualDepartureUTC:    r.UTCTimes.ActualDepartureUTC,
		EstimatedArrivalUTC:   r.UTCTimes.EstimatedArrivalUTC,
		EstimatedDepartureUTC: r.UTCTimes.EstimatedDepartureUTC,
		ScheduledArrivalUTC:   r.UTCTimes.ScheduledArrivalUTC,
		ScheduledDepartureUTC: r.UTCTimes.ScheduledDepartureUTC,
	}
}

// FlightStatusUpdatePayload echoes pre-existing state next to the new status
type FlightStatusUpdatePayload struct {
	FlightNumber   string `json:"flight_number"`
	Date           string `json:"date"`
	Timestamp      string `json:"timestamp"`
	Carrier        string `json:"carrier"`
	StatusText     string `json:"status_text"`
	ArrivalState   string `json:"arrival_state"`
	DepartureState string `json:"departure_state"`
	BagClaim       string `json:"bag_claim"`
	StatusCode     string `json:"status_code"`
}

// SubscriptionDetailsPayload is emitted per subscribe and per actual unsubscribe
type SubscriptionDetailsPayload struct {
	FlightNumber string `json:"flight_number"`
	Principal    string `json:"principal"`
	Carrier      string `json:"carrier"`
	Airport      string `json:"airport"`
	Subscribed   bool   `json:"subscribed"`
}

// SubscriptionsRemovedPayload is emitted once per bulk unsubscribe
type SubscriptionsRemovedPayload struct {
	Principal string `json:"principal"`
	Count     int    `json:"count"`
}
