// internal/domain/entity/flight_record.go
package entity

import "time"

// FlightKey is the composite key of one flight occurrence.
type FlightKey struct {
	FlightNumber  string `json:"flight_number" bson:"flightNumber"`
	ScheduledDate string `json:"scheduled_date" bson:"scheduledDate"` // YYYY-MM-DD
	CarrierCode   string `json:"carrier_code" bson:"carrierCode"`
}

// FlightData holds the core attributes of a flight occurrence
type FlightData struct {
	FlightNumber         string `json:"flight_number" bson:"flightNumber"`
	ScheduledDate        string `json:"scheduled_date" bson:"scheduledDate"`
	CarrierCode          string `json:"carrier_code" bson:"carrierCode"`
	ArrivalCity          string `json:"arrival_city" bson:"arrivalCity"`
	DepartureCity        string `json:"departure_city" bson:"departureCity"`
	ArrivalAirport       string `json:"arrival_airport" bson:"arrivalAirport"`
	DepartureAirport     string `json:"departure_airport" bson:"departureAirport"`
	OperatingAirlineCode string `json:"operating_airline_code" bson:"operatingAirlineCode"`
	ArrivalGate          string `json:"arrival_gate" bson:"arrivalGate"`
	DepartureGate        string `json:"departure_gate" bson:"departureGate"`
	FlightStatus         string `json:"flight_status" bson:"flightStatus"`
	EquipmentModel       string `json:"equipment_model" bson:"equipmentModel"`
}

// Key returns the composite key of the flight data
func (d FlightData) Key() FlightKey {
	return FlightKey{
		FlightNumber:  d.FlightNumber,
		ScheduledDate: d.ScheduledDate,
		CarrierCode:   d.CarrierCode,
	}
}

// UTCTimes is the timing block of a flight occurrence. Times are ISO-8601 strings,
// delays are minutes encoded as strings.
type UTCTimes struct {
	ActualArrivalUTC      string `json:"actual_arrival_utc" bson:"actualArrivalUtc"`
	ActualDepartureUTC    string `json:"actual_departure_utc" bson:"actualDepartureUtc"`
	EstimatedArrivalUTC   string `json:"estimated_arrival_utc" bson:"estimatedArrivalUtc"`
	EstimatedDepartureUTC string `json:"estimated_departure_utc" bson:"estimatedDepartureUtc"`
	ScheduledArrivalUTC   string `json:"scheduled_arrival_utc" bson:"scheduledArrivalUtc"`
	ScheduledDepartureUTC string `json:"scheduled_departure_utc" bson:"scheduledDepartureUtc"`
	ArrivalDelayMinutes   string `json:"arrival_delay_minutes" bson:"arrivalDelayMinutes"`
	DepartureDelayMinutes string `json:"departure_delay_minutes" bson:"departureDelayMinutes"`
	BagClaim              string `json:"bag_claim" bson:"bagClaim"`
}

// FlightStatus is the structured status block of a flight occurrence
type FlightStatus struct {
	StatusCode        string `json:"status_code" bson:"statusCode"`
	StatusDescription string `json:"status_description" bson:"statusDescription"`
	ArrivalState      string `json:"arrival_state" bson:"arrivalState"`
	DepartureState    string `json:"departure_state" bson:"departureState"`
	OutUTC            string `json:"out_utc" bson:"outUtc"`
	OffUTC            string `json:"off_utc" bson:"offUtc"`
	OnUTC             string `json:"on_utc" bson:"onUtc"`
	InUTC             string `json:"in_utc" bson:"inUtc"`
}

// MarketingSegment is a codeshare flight number this flight is also sold under
type MarketingSegment struct {
	MarketingAirlineCode  string `json:"marketing_airline_code" bson:"marketingAirlineCode"`
	MarketingFlightNumber string `json:"marketing_flight_number" bson:"marketingFlightNumber"`
}

// FlightRecord is one stored flight occurrence.
// Seq is the insertion sequence of the key and is kept across overwrites so the
// date index can be rebuilt in its original order.
type FlightRecord struct {
	Data     FlightData         `json:"flight_data" bson:"flightData"`
	UTCTimes UTCTimes           `json:"utc_times" bson:"utcTimes"`
	Status   FlightStatus       `json:"status" bson:"status"`
	Segments []MarketingSegment `json:"marketed_segments" bson:"marketedSegments"`
	Seq      int64              `json:"-" bson:"seq"`
}

// Key returns the composite key of the record
func (r FlightRecord) Key() FlightKey {
	return r.Data.Key()
}

// FlightInput is the payload of a single insertion. Marketing codes and numbers are
// parallel lists and must be the same length.
type FlightInput struct {
	Data             FlightData   `json:"flight_data"`
	UTCTimes         UTCTimes     `json:"utc_times"`
	Status           FlightStatus `json:"status"`
	MarketingCodes   []string     `json:"marketing_airline_codes"`
	MarketingNumbers []string     `json:"marketing_flight_numbers"`
}

// FlightDetails is the range query projection of one record
type FlightDetails struct {
	FlightData
	UTCTimes         UTCTimes           `json:"utc_times"`
	Status           FlightStatus       `json:"status"`
	MarketedSegments []MarketingSegment `json:"marketed_segments"`
	CurrentStatus    string             `json:"current_status"`
}

// StatusUpdate carries a status mutation of one flight occurrence
type StatusUpdate struct {
	FlightNumber string `json:"flight_number"`
	Date         string `json:"date"`
	Carrier      string `json:"carrier"`
	Timestamp    string `json:"timestamp"`
	StatusText   string `json:"status_text"`
	StatusCode   string `json:"status_code"`
}

// CurrentStatus is the latest human readable status of a flight number
type CurrentStatus struct {
	FlightNumber string `json:"flight_number" bson:"_id"`
	Status       string `json:"status" bson:"status"`
}

// RangeQuery selects the records of a (flight, carrier) pair whose scheduled date
// falls in [FromDate, ToDate]. ReferenceTime must not be older than the staleness window.
type RangeQuery struct {
	FlightNumber  string    `json:"flight_number"`
	Carrier       string    `json:"carrier"`
	FromDate      string    `json:"from_date"`
	ToDate        string    `json:"to_date"`
	ReferenceTime time.Time `json:"reference_time"`
}
