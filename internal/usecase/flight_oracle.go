package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"flightstatus-oracle/internal/domain/entity"
	"flightstatus-oracle/internal/domain/repository"
	"flightstatus-oracle/pkg/logger"
	"flightstatus-oracle/pkg/metrics"
	"flightstatus-oracle/pkg/utils"
)

const (
	// MaxBatchSize is the largest number of flights one batch insertion accepts
	MaxBatchSize = 50
	// MaxMarketingSegments is the largest number of marketing segments one record carries
	MaxMarketingSegments = 50

	DefaultStalenessWindow = 30 * 24 * time.Hour
)

// OracleOptions tunes a FlightOracle
type OracleOptions struct {
	StalenessWindow time.Duration
	Clock           func() time.Time
}

// FlightOracle owns the record store, the date index and the subscription
// registry and exposes the only mutation surface over them. Every mutation runs
// as one critical section: validate, persist, apply, publish.
type FlightOracle struct {
	mu      sync.RWMutex
	records *recordStore
	dates   *dateIndex
	subs    *subscriptionRegistry

	recordRepo repository.FlightRecordRepository
	subRepo    repository.SubscriptionRepository
	publisher  repository.EventPublisher
	metrics    *metrics.Metrics
	logger     logger.Logger
	opts       OracleOptions

	// eventSeq is the Seq of the last published event, guarded by mu
	eventSeq uint64
}

// NewFlightOracle creates a new flight oracle. Nil repositories keep the
// corresponding state in memory only, a nil publisher disables the change feed.
func NewFlightOracle(
	recordRepo repository.FlightRecordRepository,
	subRepo repository.SubscriptionRepository,
	publisher repository.EventPublisher,
	metrics *metrics.Metrics,
	logger logger.Logger,
	opts OracleOptions,
) *FlightOracle {
	if opts.StalenessWindow <= 0 {
		opts.StalenessWindow = DefaultStalenessWindow
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &FlightOracle{
		records:    newRecordStore(),
		dates:      newDateIndex(),
		subs:       newSubscriptionRegistry(),
		recordRepo: recordRepo,
		subRepo:    subRepo,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
		opts:       opts,
	}
}

// Hydrate rebuilds the in-memory state from the repositories
func (o *FlightOracle) Hydrate(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.recordRepo != nil {
		records, err := o.recordRepo.FindAll(ctx)
		if err != nil {
			return fmt.Errorf("load flight records: %w", err)
		}
		for _, r := range records {
			o.records.put(r)
			o.dates.add(r.Data.FlightNumber, r.Data.CarrierCode, r.Data.ScheduledDate)
		}

		statuses, err := o.recordRepo.FindCurrentStatuses(ctx)
		if err != nil {
			return fmt.Errorf("load current statuses: %w", err)
		}
		for _, s := range statuses {
			o.records.setCurrentStatus(s.FlightNumber, s.Status)
		}
		o.logger.Info("Loaded flight records", "records", len(records), "statuses", len(statuses))
	}

	if o.subRepo != nil {
		subs, err := o.subRepo.FindActive(ctx)
		if err != nil {
			return fmt.Errorf("load subscriptions: %w", err)
		}
		for _, s := range subs {
			o.subs.subscribe(s.Key())
		}
		o.logger.Info("Loaded subscriptions", "count", len(subs))
	}

	o.metrics.StoredRecords.Set(float64(o.records.len()))
	o.metrics.ActiveSubscriptions.Set(float64(o.subs.count()))
	return nil
}

// InsertFlightDetails stores one flight occurrence, overwriting an existing record
// at the same key
func (o *FlightOracle) InsertFlightDetails(ctx context.Context, input entity.FlightInput) error {
	return o.insert(ctx, "insert", []entity.FlightInput{input})
}

// InsertMultipleFlightDetails stores up to MaxBatchSize occurrences. Either all
// records are stored or none.
func (o *FlightOracle) InsertMultipleFlightDetails(ctx context.Context, inputs []entity.FlightInput) error {
	if len(inputs) == 0 {
		return o.fail("insert_batch", &entity.OracleError{Kind: entity.KindEmptyBatch, Detail: "no flight data provided"})
	}
	if len(inputs) > MaxBatchSize {
		return o.fail("insert_batch", &entity.OracleError{
			Kind:   entity.KindBatchTooLarge,
			Detail: fmt.Sprintf("%d flights exceeds the limit of %d", len(inputs), MaxBatchSize),
		})
	}
	return o.insert(ctx, "insert_batch", inputs)
}

func (o *FlightOracle) insert(ctx context.Context, op string, inputs []entity.FlightInput) error {
	records := make([]entity.FlightRecord, 0, len(inputs))
	for i, input := range inputs {
		record, err := o.buildRecord(input)
		if err != nil {
			o.logger.Warn("Rejected flight input", "operation", op, "index", i, "error", err)
			return o.fail(op, err)
		}
		records = append(records, record)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	// Sequences are assigned before persisting so the stored order survives a restart.
	var pending int64
	assigned := make(map[entity.FlightKey]int64, len(records))
	for i := range records {
		key := records[i].Key()
		if seq, ok := assigned[key]; ok {
			records[i].Seq = seq
			continue
		}
		if !o.records.has(key) {
			pending++
		}
		records[i].Seq = o.records.seqFor(key, pending)
		assigned[key] = records[i].Seq
	}

	statuses := latestStatuses(records)

	if o.recordRepo != nil {
		if err := o.recordRepo.UpsertMany(ctx, records, statuses); err != nil {
			o.logger.Error("Failed to persist flight records", "operation", op, "count", len(records), "error", err)
			return o.fail(op, fmt.Errorf("persist flight records: %w", err))
		}
	}

	now := o.opts.Clock()
	events := make([]entity.Event, 0, len(records))
	overwritten := 0
	for _, r := range records {
		if !o.records.put(r) {
			overwritten++
		}
		o.dates.add(r.Data.FlightNumber, r.Data.CarrierCode, r.Data.ScheduledDate)
		events = append(events, entity.NewEvent(entity.EventFlightDataSet, now, entity.NewFlightDataSetPayload(r)))
	}
	for _, s := range statuses {
		o.records.setCurrentStatus(s.FlightNumber, s.Status)
	}

	o.metrics.FlightsInserted.Add(float64(len(records)))
	o.metrics.FlightsOverwritten.Add(float64(overwritten))
	o.metrics.StoredRecords.Set(float64(o.records.len()))
	o.logger.Info("Flight details stored", "operation", op, "count", len(records), "overwritten", overwritten)

	o.publish(ctx, events...)
	return nil
}

func (o *FlightOracle) buildRecord(input entity.FlightInput) (entity.FlightRecord, error) {
	if err := utils.ValidateDate(input.Data.ScheduledDate); err != nil {
		var oe *entity.OracleError
		if errors.As(err, &oe) {
			oe.FlightNumber = input.Data.FlightNumber
			oe.Carrier = input.Data.CarrierCode
		}
		return entity.FlightRecord{}, err
	}
	if len(input.MarketingCodes) != len(input.MarketingNumbers) {
		return entity.FlightRecord{}, &entity.OracleError{
			Kind:         entity.KindLengthMismatch,
			FlightNumber: input.Data.FlightNumber,
			Date:         input.Data.ScheduledDate,
			Carrier:      input.Data.CarrierCode,
			Detail:       fmt.Sprintf("%d marketing codes for %d marketing numbers", len(input.MarketingCodes), len(input.MarketingNumbers)),
		}
	}
	if len(input.MarketingCodes) > MaxMarketingSegments {
		return entity.FlightRecord{}, &entity.OracleError{
			Kind:         entity.KindBatchTooLarge,
			FlightNumber: input.Data.FlightNumber,
			Date:         input.Data.ScheduledDate,
			Carrier:      input.Data.CarrierCode,
			Detail:       fmt.Sprintf("%d marketing segments exceeds the limit of %d", len(input.MarketingCodes), MaxMarketingSegments),
		}
	}

	segments := make([]entity.MarketingSegment, len(input.MarketingCodes))
	for i := range input.MarketingCodes {
		segments[i] = entity.MarketingSegment{
			MarketingAirlineCode:  input.MarketingCodes[i],
			MarketingFlightNumber: input.MarketingNumbers[i],
		}
	}

	return entity.FlightRecord{
		Data:     input.Data,
		UTCTimes: input.UTCTimes,
		Status:   input.Status,
		Segments: segments,
	}, nil
}

// latestStatuses returns the last flight status text per flight number, in first-seen order
func latestStatuses(records []entity.FlightRecord) []entity.CurrentStatus {
	index := make(map[string]int)
	var statuses []entity.CurrentStatus
	for _, r := range records {
		fn := r.Data.FlightNumber
		if i, ok := index[fn]; ok {
			statuses[i].Status = r.Data.FlightStatus
			continue
		}
		index[fn] = len(statuses)
		statuses = append(statuses, entity.CurrentStatus{FlightNumber: fn, Status: r.Data.FlightStatus})
	}
	return statuses
}

// IsFlightExist reports whether any record exists under the flight number
func (o *FlightOracle) IsFlightExist(flightNumber string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.records.exists(flightNumber)
}

// GetFlightRecord returns the record stored at the composite key
func (o *FlightOracle) GetFlightRecord(flightNumber, date, carrier string) (entity.FlightRecord, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	r, ok := o.records.get(entity.FlightKey{FlightNumber: flightNumber, ScheduledDate: date, CarrierCode: carrier})
	if !ok {
		return entity.FlightRecord{}, o.fail("get", entity.NewFlightNotFound(flightNumber, date, carrier))
	}
	return r, nil
}

// CheckFlightStatus returns the status block of one record
func (o *FlightOracle) CheckFlightStatus(flightNumber, date, carrier string) (entity.FlightStatus, error) {
	r, err := o.GetFlightRecord(flightNumber, date, carrier)
	if err != nil {
		return entity.FlightStatus{}, err
	}
	return r.Status, nil
}

// UTCTimes returns the timing block of one record
func (o *FlightOracle) UTCTimes(flightNumber, date, carrier string) (entity.UTCTimes, error) {
	r, err := o.GetFlightRecord(flightNumber, date, carrier)
	if err != nil {
		return entity.UTCTimes{}, err
	}
	return r.UTCTimes, nil
}

// CurrentStatus returns the latest status text of a flight number, empty when unknown
func (o *FlightOracle) CurrentStatus(flightNumber string) string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.records.current(flightNumber)
}

// FlightDates returns the dates stored for a (flight, carrier) pair in insertion order
func (o *FlightOracle) FlightDates(flightNumber, carrier string) []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.dates.datesFor(flightNumber, carrier)
}

// GetFlightDetails returns the records of the pair whose date is within
// [FromDate, ToDate], in date index order
func (o *FlightOracle) GetFlightDetails(ctx context.Context, q entity.RangeQuery) ([]entity.FlightDetails, error) {
	start := time.Now()
	defer func() {
		o.metrics.QueryTime.Observe(time.Since(start).Seconds())
	}()

	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.records.exists(q.FlightNumber) {
		return nil, o.fail("query", entity.NewFlightNotFound(q.FlightNumber, "", ""))
	}

	dates := o.dates.datesFor(q.FlightNumber, q.Carrier)
	if len(dates) == 0 {
		return nil, o.fail("query", &entity.OracleError{Kind: entity.KindNoCarrierData, FlightNumber: q.FlightNumber, Carrier: q.Carrier})
	}

	now := o.opts.Clock()
	if age := now.Sub(q.ReferenceTime); age > o.opts.StalenessWindow {
		return nil, o.fail("query", &entity.OracleError{
			Kind:         entity.KindRangeTooOld,
			FlightNumber: q.FlightNumber,
			Carrier:      q.Carrier,
			Detail:       fmt.Sprintf("reference time is %s old, limit is %s", age.Truncate(time.Second), o.opts.StalenessWindow),
		})
	}

	if err := utils.ValidateDate(q.FromDate); err != nil {
		return nil, o.fail("query", err)
	}
	if err := utils.ValidateDate(q.ToDate); err != nil {
		return nil, o.fail("query", err)
	}

	results := make([]entity.FlightDetails, 0, len(dates))
	current := o.records.current(q.FlightNumber)
	for _, d := range dates {
		in, err := utils.InDateRange(d, q.FromDate, q.ToDate)
		if err != nil {
			return nil, o.fail("query", err)
		}
		if !in {
			continue
		}

		r, ok := o.records.get(entity.FlightKey{FlightNumber: q.FlightNumber, ScheduledDate: d, CarrierCode: q.Carrier})
		if !ok {
			o.logger.Error("Date index entry without record", "flightNumber", q.FlightNumber, "carrier", q.Carrier, "date", d)
			continue
		}
		results = append(results, entity.FlightDetails{
			FlightData:       r.Data,
			UTCTimes:         r.UTCTimes,
			Status:           r.Status,
			MarketedSegments: r.Segments,
			CurrentStatus:    current,
		})
	}

	o.logger.Debug("Range query answered",
		"flightNumber", q.FlightNumber,
		"carrier", q.Carrier,
		"from", q.FromDate,
		"to", q.ToDate,
		"results", len(results))

	return results, nil
}

// UpdateFlightStatus overwrites the status code and description of one record and
// the flight-number scoped current status. Updating any date or carrier of a
// flight number replaces the shared current status.
func (o *FlightOracle) UpdateFlightStatus(ctx context.Context, u entity.StatusUpdate) error {
	key := entity.FlightKey{FlightNumber: u.FlightNumber, ScheduledDate: u.Date, CarrierCode: u.Carrier}

	o.mu.Lock()
	defer o.mu.Unlock()

	r, ok := o.records.get(key)
	if !ok {
		return o.fail("update_status", entity.NewFlightNotFound(u.FlightNumber, u.Date, u.Carrier))
	}

	status := r.Status
	status.StatusCode = u.StatusCode
	status.StatusDescription = u.StatusText
	current := entity.CurrentStatus{FlightNumber: u.FlightNumber, Status: u.StatusText}

	if o.recordRepo != nil {
		if err := o.recordRepo.UpdateStatus(ctx, key, status, current); err != nil {
			o.logger.Error("Failed to persist status update", "flightNumber", u.FlightNumber, "date", u.Date, "carrier", u.Carrier, "error", err)
			return o.fail("update_status", fmt.Errorf("persist status update: %w", err))
		}
	}

	o.records.setStatus(key, status)
	o.records.setCurrentStatus(current.FlightNumber, current.Status)

	o.metrics.StatusUpdates.Inc()
	o.logger.Info("Flight status updated",
		"flightNumber", u.FlightNumber,
		"date", u.Date,
		"carrier", u.Carrier,
		"statusCode", u.StatusCode)

	o.publish(ctx, entity.NewEvent(entity.EventFlightStatusUpdate, o.opts.Clock(), entity.FlightStatusUpdatePayload{
		FlightNumber:   u.FlightNumber,
		Date:           u.Date,
		Timestamp:      u.Timestamp,
		Carrier:        u.Carrier,
		StatusText:     u.StatusText,
		ArrivalState:   r.Status.ArrivalState,
		DepartureState: r.Status.DepartureState,
		BagClaim:       r.UTCTimes.BagClaim,
		StatusCode:     u.StatusCode,
	}))
	return nil
}

// AddFlightSubscription subscribes principal to a flight at an airport
func (o *FlightOracle) AddFlightSubscription(ctx context.Context, principal, flightNumber, carrier, airport string) error {
	key := entity.SubscriptionKey{Principal: principal, FlightNumber: flightNumber, Carrier: carrier, Airport: airport}

	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.records.exists(flightNumber) {
		return o.fail("subscribe", entity.NewFlightNotFound(flightNumber, "", ""))
	}
	if o.subs.isSubscribed(key) {
		return o.fail("subscribe", &entity.OracleError{Kind: entity.KindAlreadySubscribed, FlightNumber: flightNumber, Carrier: carrier, Detail: "airport " + airport})
	}

	if o.subRepo != nil {
		sub := entity.Subscription{
			Principal:    principal,
			FlightNumber: flightNumber,
			Carrier:      carrier,
			Airport:      airport,
			Subscribed:   true,
			UpdatedAt:    o.opts.Clock(),
		}
		if err := o.subRepo.Subscribe(ctx, sub); err != nil {
			o.logger.Error("Failed to persist subscription", "principal", principal, "flightNumber", flightNumber, "error", err)
			return o.fail("subscribe", fmt.Errorf("persist subscription: %w", err))
		}
	}

	o.subs.subscribe(key)
	o.metrics.SubscriptionsAdded.Inc()
	o.metrics.ActiveSubscriptions.Set(float64(o.subs.count()))
	o.logger.Info("Subscription added", "principal", principal, "flightNumber", flightNumber, "carrier", carrier, "airport", airport)

	o.publish(ctx, entity.NewEvent(entity.EventSubscriptionDetails, o.opts.Clock(), entity.SubscriptionDetailsPayload{
		FlightNumber: flightNumber,
		Principal:    principal,
		Carrier:      carrier,
		Airport:      airport,
		Subscribed:   true,
	}))
	return nil
}

// RemoveFlightSubscriptions unsubscribes principal from every tuple built from the
// parallel lists. Tuples that are not subscribed are skipped. It returns the
// number of subscriptions actually removed.
func (o *FlightOracle) RemoveFlightSubscriptions(ctx context.Context, principal string, flightNumbers, carriers, airports []string) (int, error) {
	if len(flightNumbers) != len(carriers) || len(flightNumbers) != len(airports) {
		return 0, o.fail("unsubscribe", entity.NewLengthMismatch(fmt.Sprintf(
			"%d flight numbers, %d carriers, %d airports", len(flightNumbers), len(carriers), len(airports))))
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	var removed []entity.SubscriptionKey
	seen := make(map[entity.SubscriptionKey]struct{}, len(flightNumbers))
	for i := range flightNumbers {
		key := entity.SubscriptionKey{Principal: principal, FlightNumber: flightNumbers[i], Carrier: carriers[i], Airport: airports[i]}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if o.subs.isSubscribed(key) {
			removed = append(removed, key)
		}
	}

	if o.subRepo != nil && len(removed) > 0 {
		if err := o.subRepo.UnsubscribeMany(ctx, removed); err != nil {
			o.logger.Error("Failed to persist unsubscriptions", "principal", principal, "count", len(removed), "error", err)
			return 0, o.fail("unsubscribe", fmt.Errorf("persist unsubscriptions: %w", err))
		}
	}

	now := o.opts.Clock()
	events := make([]entity.Event, 0, len(removed)+1)
	for _, key := range removed {
		o.subs.unsubscribe(key)
		events = append(events, entity.NewEvent(entity.EventSubscriptionDetails, now, entity.SubscriptionDetailsPayload{
			FlightNumber: key.FlightNumber,
			Principal:    principal,
			Carrier:      key.Carrier,
			Airport:      key.Airport,
			Subscribed:   false,
		}))
	}
	events = append(events, entity.NewEvent(entity.EventSubscriptionsRemoved, now, entity.SubscriptionsRemovedPayload{
		Principal: principal,
		Count:     len(removed),
	}))

	o.metrics.SubscriptionsRemoved.Add(float64(len(removed)))
	o.metrics.ActiveSubscriptions.Set(float64(o.subs.count()))
	o.logger.Info("Subscriptions removed", "principal", principal, "requested", len(flightNumbers), "removed", len(removed))

	o.publish(ctx, events...)
	return len(removed), nil
}

// IsFlightSubscribed reports whether the tuple is currently subscribed
func (o *FlightOracle) IsFlightSubscribed(principal, flightNumber, carrier, airport string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.subs.isSubscribed(entity.SubscriptionKey{Principal: principal, FlightNumber: flightNumber, Carrier: carrier, Airport: airport})
}

// publish stamps events with consecutive sequence numbers and sends them in
// order. Callers hold the write lock, so Seq order is mutation order. Failures
// are logged, the mutation stands.
func (o *FlightOracle) publish(ctx context.Context, events ...entity.Event) {
	if o.publisher == nil {
		return
	}
	for _, e := range events {
		o.eventSeq++
		e.Seq = o.eventSeq
		if err := o.publisher.Publish(ctx, e); err != nil {
			o.logger.Error("Failed to publish event", "type", e.Type, "id", e.ID, "seq", e.Seq, "error", err)
			o.metrics.ErrorsCount.WithLabelValues("publish", string(e.Type)).Inc()
			continue
		}
		o.metrics.EventsPublished.WithLabelValues(string(e.Type)).Inc()
	}
}

// fail counts err under the operation and returns it unchanged
func (o *FlightOracle) fail(op string, err error) error {
	kind := "internal"
	var oe *entity.OracleError
	if errors.As(err, &oe) {
		kind = string(oe.Kind)
	}
	o.metrics.ErrorsCount.WithLabelValues(op, kind).Inc()
	return err
}
