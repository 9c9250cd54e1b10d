package api

import (
	"net/http"
	"strings"

	"flightstatus-oracle/internal/domain/entity"
	"flightstatus-oracle/pkg/utils"
)

// SubscribeRequest is the body of a subscription
type SubscribeRequest struct {
	FlightNumber string `json:"flight_number"`
	Carrier      string `json:"carrier"`
	Airport      string `json:"airport"`
}

// UnsubscribeRequest carries three parallel lists of equal length
type UnsubscribeRequest struct {
	FlightNumbers []string `json:"flight_numbers"`
	Carriers      []string `json:"carriers"`
	Airports      []string `json:"airports"`
}

func principalFrom(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(PrincipalHeader))
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	if principal == "" {
		writeError(w, http.StatusBadRequest, PrincipalHeader+" header required")
		return
	}

	var req SubscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.service.AddFlightSubscription(r.Context(), principal, req.FlightNumber, req.Carrier, req.Airport); err != nil {
		s.writeOracleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entity.SubscriptionDetailsPayload{
		FlightNumber: req.FlightNumber,
		Principal:    principal,
		Carrier:      req.Carrier,
		Airport:      req.Airport,
		Subscribed:   true,
	})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r)
	if principal == "" {
		writeError(w, http.StatusBadRequest, PrincipalHeader+" header required")
		return
	}

	var req UnsubscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	removed, err := s.service.RemoveFlightSubscriptions(r.Context(), principal, req.FlightNumbers, req.Carriers, req.Airports)
	if err != nil {
		s.writeOracleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entity.SubscriptionsRemovedPayload{Principal: principal, Count: removed})
}

func (s *Server) handleIsSubscribed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	principal := q.Get("principal")
	if principal == "" {
		principal = principalFrom(r)
	}

	writeJSON(w, http.StatusOK, entity.SubscriptionDetailsPayload{
		FlightNumber: q.Get("flight_number"),
		Principal:    principal,
		Carrier:      q.Get("carrier"),
		Airport:      q.Get("airport"),
		Subscribed:   s.service.IsFlightSubscribed(principal, q.Get("flight_number"), q.Get("carrier"), q.Get("airport")),
	})
}

func (s *Server) handleCompareDates(w http.ResponseWriter, r *http.Request) {
	a, b := r.URL.Query().Get("a"), r.URL.Query().Get("b")

	le, err := utils.IsDateLessThanOrEqual(a, b)
	if err != nil {
		s.writeOracleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"a":                  a,
		"b":                  b,
		"less_than_or_equal": le,
	})
}
