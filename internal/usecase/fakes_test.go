package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"flightstatus-oracle/internal/domain/entity"
	"flightstatus-oracle/internal/domain/repository"
	"flightstatus-oracle/pkg/logger"
	"flightstatus-oracle/pkg/metrics"
)

var errStoreDown = errors.New("store unavailable")

type fakeRecordRepo struct {
	mu       sync.Mutex
	records  map[entity.FlightKey]entity.FlightRecord
	statuses map[string]string
	failNext bool
	upserts  int
}

var _ repository.FlightRecordRepository = (*fakeRecordRepo)(nil)

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{
		records:  make(map[entity.FlightKey]entity.FlightRecord),
		statuses: make(map[string]string),
	}
}

func (f *fakeRecordRepo) UpsertMany(ctx context.Context, records []entity.FlightRecord, statuses []entity.CurrentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errStoreDown
	}
	f.upserts++
	for _, r := range records {
		f.records[r.Key()] = r
	}
	for _, s := range statuses {
		f.statuses[s.FlightNumber] = s.Status
	}
	return nil
}

func (f *fakeRecordRepo) UpdateStatus(ctx context.Context, key entity.FlightKey, status entity.FlightStatus, current entity.CurrentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errStoreDown
	}
	r := f.records[key]
	r.Status = status
	f.records[key] = r
	f.statuses[current.FlightNumber] = current.Status
	return nil
}

func (f *fakeRecordRepo) FindAll(ctx context.Context) ([]entity.FlightRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.FlightRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (f *fakeRecordRepo) FindCurrentStatuses(ctx context.Context) ([]entity.CurrentStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.CurrentStatus, 0, len(f.statuses))
	for fn, s := range f.statuses {
		out = append(out, entity.CurrentStatus{FlightNumber: fn, Status: s})
	}
	return out, nil
}

type fakeSubscriptionRepo struct {
	mu       sync.Mutex
	active   map[entity.SubscriptionKey]entity.Subscription
	failNext bool
}

var _ repository.SubscriptionRepository = (*fakeSubscriptionRepo)(nil)

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{active: make(map[entity.SubscriptionKey]entity.Subscription)}
}

func (f *fakeSubscriptionRepo) Subscribe(ctx context.Context, sub entity.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errStoreDown
	}
	f.active[sub.Key()] = sub
	return nil
}

func (f *fakeSubscriptionRepo) UnsubscribeMany(ctx context.Context, keys []entity.SubscriptionKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errStoreDown
	}
	for _, k := range keys {
		delete(f.active, k)
	}
	return nil
}

func (f *fakeSubscriptionRepo) FindActive(ctx context.Context) ([]entity.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.Subscription, 0, len(f.active))
	for _, s := range f.active {
		out = append(out, s)
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.Event
	fail   bool
}

var _ repository.EventPublisher = (*recordingPublisher)(nil)

func (p *recordingPublisher) Publish(ctx context.Context, e entity.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) ofType(t entity.EventType) []entity.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []entity.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type oracleFixture struct {
	oracle    *FlightOracle
	records   *fakeRecordRepo
	subs      *fakeSubscriptionRepo
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	now       time.Time
}

func newOracleFixture() *oracleFixture {
	f := &oracleFixture{
		records:   newFakeRecordRepo(),
		subs:      newFakeSubscriptionRepo(),
		publisher: &recordingPublisher{},
		metrics:   metrics.NewMetrics("test", prometheus.NewRegistry()),
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.oracle = f.newOracle()
	return f
}

// newOracle builds a fresh oracle over the fixture's repositories and metrics
func (f *oracleFixture) newOracle() *FlightOracle {
	return NewFlightOracle(
		f.records,
		f.subs,
		f.publisher,
		f.metrics,
		logger.NewNopLogger(),
		OracleOptions{Clock: func() time.Time { return f.now }},
	)
}

func flightInput(flightNumber, date, carrier string) entity.FlightInput {
	return entity.FlightInput{
		Data: entity.FlightData{
			FlightNumber:         flightNumber,
			ScheduledDate:        date,
			CarrierCode:          carrier,
			ArrivalCity:          "Los Angeles",
			DepartureCity:        "New York",
			ArrivalAirport:       "LAX",
			DepartureAirport:     "JFK",
			OperatingAirlineCode: carrier,
			ArrivalGate:          "B12",
			DepartureGate:        "A5",
			FlightStatus:         "On Time",
			EquipmentModel:       "Boeing 737",
		},
		UTCTimes: entity.UTCTimes{
			ScheduledArrivalUTC:   date + "T14:00:00Z",
			ScheduledDepartureUTC: date + "T08:00:00Z",
			ArrivalDelayMinutes:   "0",
			DepartureDelayMinutes: "0",
			BagClaim:              "7",
		},
		Status: entity.FlightStatus{
			StatusCode:        "S",
			StatusDescription: "Scheduled",
			ArrivalState:      "ONT",
			DepartureState:    "ONT",
		},
		MarketingCodes:   []string{},
		MarketingNumbers: []string{},
	}
}
