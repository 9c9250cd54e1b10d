package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"flightstatus-oracle/internal/domain/entity"
)

// BatchRequest is the body of a batch insertion
type BatchRequest struct {
	Flights []entity.FlightInput `json:"flights"`
}

// StatusUpdateRequest is the body of a status update. The key comes from the path.
type StatusUpdateRequest struct {
	Timestamp  string `json:"timestamp"`
	StatusText string `json:"status_text"`
	StatusCode string `json:"status_code"`
}

func (s *Server) handleInsertFlight(w http.ResponseWriter, r *http.Request) {
	var input entity.FlightInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.service.InsertFlightDetails(r.Context(), input); err != nil {
		s.writeOracleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, input.Data.Key())
}

func (s *Server) handleInsertBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.service.InsertMultipleFlightDetails(r.Context(), req.Flights); err != nil {
		s.writeOracleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int{"inserted": len(req.Flights)})
}

func (s *Server) handleFlightExists(w http.ResponseWriter, r *http.Request) {
	fn := chi.URLParam(r, "flight_number")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"flight_number": fn,
		"exists":        s.service.IsFlightExist(fn),
	})
}

func (s *Server) handleCurrentStatus(w http.ResponseWriter, r *http.Request) {
	fn := chi.URLParam(r, "flight_number")
	writeJSON(w, http.StatusOK, entity.CurrentStatus{
		FlightNumber: fn,
		Status:       s.service.CurrentStatus(fn),
	})
}

func (s *Server) handleFlightDates(w http.ResponseWriter, r *http.Request) {
	fn := chi.URLParam(r, "flight_number")
	carrier := chi.URLParam(r, "carrier")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"flight_number": fn,
		"carrier":       carrier,
		"dates":         s.service.FlightDates(fn, carrier),
	})
}

// handleFlightDetails answers range queries. reference is a unix timestamp in
// seconds and defaults to now.
func (s *Server) handleFlightDetails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	reference := s.clock()
	if raw := q.Get("reference"); raw != "" {
		secs, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "reference must be unix seconds")
			return
		}
		reference = time.Unix(secs, 0)
	}

	details, err := s.service.GetFlightDetails(r.Context(), entity.RangeQuery{
		FlightNumber:  chi.URLParam(r, "flight_number"),
		Carrier:       chi.URLParam(r, "carrier"),
		FromDate:      q.Get("from"),
		ToDate:        q.Get("to"),
		ReferenceTime: reference,
	})
	if err != nil {
		s.writeOracleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(details),
		"flights": details,
	})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	record, err := s.service.GetFlightRecord(keyParams(r))
	if err != nil {
		s.writeOracleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleCheckStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.CheckFlightStatus(keyParams(r))
	if err != nil {
		s.writeOracleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleUTCTimes(w http.ResponseWriter, r *http.Request) {
	times, err := s.service.UTCTimes(keyParams(r))
	if err != nil {
		s.writeOracleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, times)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fn, date, carrier := keyParams(r)
	err := s.service.UpdateFlightStatus(r.Context(), entity.StatusUpdate{
		FlightNumber: fn,
		Date:         date,
		Carrier:      carrier,
		Timestamp:    req.Timestamp,
		StatusText:   req.StatusText,
		StatusCode:   req.StatusCode,
	})
	if err != nil {
		s.writeOracleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func keyParams(r *http.Request) (flightNumber, date, carrier string) {
	return chi.URLParam(r, "flight_number"), chi.URLParam(r, "date"), chi.URLParam(r, "carrier")
}
