// Package api exposes the flight status oracle over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"flightstatus-oracle/internal/domain/entity"
	"flightstatus-oracle/pkg/logger"
)

// PrincipalHeader carries the opaque id of the calling principal
const PrincipalHeader = "X-Principal-ID"

// FlightService is the operation surface the API serves
type FlightService interface {
	InsertFlightDetails(ctx context.Context, input entity.FlightInput) error
	InsertMultipleFlightDetails(ctx context.Context, inputs []entity.FlightInput) error
	IsFlightExist(flightNumber string) bool
	GetFlightRecord(flightNumber, date, carrier string) (entity.FlightRecord, error)
	CheckFlightStatus(flightNumber, date, carrier string) (entity.FlightStatus, error)
	UTCTimes(flightNumber, date, carrier string) (entity.UTCTimes, error)
	CurrentStatus(flightNumber string) string
	FlightDates(flightNumber, carrier string) []string
	GetFlightDetails(ctx context.Context, q entity.RangeQuery) ([]entity.FlightDetails, error)
	UpdateFlightStatus(ctx context.Context, u entity.StatusUpdate) error
	AddFlightSubscription(ctx context.Context, principal, flightNumber, carrier, airport string) error
	RemoveFlightSubscriptions(ctx context.Context, principal string, flightNumbers, carriers, airports []string) (int, error)
	IsFlightSubscribed(principal, flightNumber, carrier, airport string) bool
}

// EventStream is a live source of change feed messages
type EventStream interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

// Config holds configuration for the API server
type Config struct {
	APIKeys []string
	// Events enables the server-sent change feed when set
	Events EventStream
	Clock  func() time.Time
}

// Server serves the oracle operations
type Server struct {
	service FlightService
	events  EventStream
	apiKeys map[string]bool
	clock   func() time.Time
	logger  logger.Logger
}

// NewServer creates a new API server
func NewServer(service FlightService, cfg Config, log logger.Logger) *Server {
	keys := make(map[string]bool)
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = true
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Server{
		service: service,
		events:  cfg.Events,
		apiKeys: keys,
		clock:   clock,
		logger:  log,
	}
}

// Router returns the configured chi router
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		if len(s.apiKeys) > 0 {
			r.Use(s.authMiddleware)
		}

		r.Route("/flights", func(r chi.Router) {
			r.Post("/", s.handleInsertFlight)
			r.Post("/batch", s.handleInsertBatch)

			r.Route("/{flight_number}", func(r chi.Router) {
				r.Get("/exists", s.handleFlightExists)
				r.Get("/current-status", s.handleCurrentStatus)
				r.Get("/carriers/{carrier}/dates", s.handleFlightDates)
				r.Get("/carriers/{carrier}/details", s.handleFlightDetails)

				r.Route("/dates/{date}/carriers/{carrier}", func(r chi.Router) {
					r.Get("/", s.handleGetRecord)
					r.Get("/status", s.handleCheckStatus)
					r.Put("/status", s.handleUpdateStatus)
					r.Get("/utc-times", s.handleUTCTimes)
				})
			})
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", s.handleIsSubscribed)
			r.Post("/", s.handleSubscribe)
			r.Delete("/", s.handleUnsubscribe)
		})

		r.Get("/dates/compare", s.handleCompareDates)

		if s.events != nil {
			r.Get("/events", s.handleEvents)
		}
	})

	return r
}

// authMiddleware validates API key authentication
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")

		// Fall back to Authorization: Bearer <key>
		if apiKey == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}
		if !s.apiKeys[apiKey] {
			writeError(w, http.StatusForbidden, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"requestId", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse is the JSON body of every failed request
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeOracleError maps err onto a status code and a typed body
func (s *Server) writeOracleError(w http.ResponseWriter, err error) {
	var oe *entity.OracleError
	if !errors.As(err, &oe) {
		s.logger.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, statusFor(oe.Kind), errorResponse{Error: oe.Error(), Kind: string(oe.Kind)})
}

func statusFor(kind entity.ErrorKind) int {
	switch kind {
	case entity.KindFlightNotFound, entity.KindNoCarrierData:
		return http.StatusNotFound
	case entity.KindAlreadySubscribed:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
