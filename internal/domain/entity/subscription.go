package entity

import "time"

// Subscription marks a principal's interest in a flight at an airport
type Subscription struct {
	Principal    string    `json:"principal"`
	FlightNumber string    `json:"flight_number"`
	Carrier      string    `json:"carrier"`
	Airport      string    `json:"airport"`
	Subscribed   bool      `json:"subscribed"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SubscriptionKey identifies one subscription tuple
type SubscriptionKey struct {
	Principal    string
	FlightNumber string
	Carrier      string
	Airport      string
}

// Key returns the tuple the subscription is registered under
func (s Subscription) Key() SubscriptionKey {
	return SubscriptionKey{
		Principal:    s.Principal,
		FlightNumber: s.FlightNumber,
		Carrier:      s.Carrier,
		Airport:      s.Airport,
	}
}
