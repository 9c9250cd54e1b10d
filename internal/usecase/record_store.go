package usecase

import (
	"flightstatus-oracle/internal/domain/entity"
)

// recordStore maps composite keys to flight records and keeps the flight-number
// scoped current status. It is not safe for concurrent use; FlightOracle guards it.
type recordStore struct {
	records       map[entity.FlightKey]*entity.FlightRecord
	perFlight     map[string]int
	currentStatus map[string]string
	nextSeq       int64
}

func newRecordStore() *recordStore {
	return &recordStore{
		records:       make(map[entity.FlightKey]*entity.FlightRecord),
		perFlight:     make(map[string]int),
		currentStatus: make(map[string]string),
	}
}

// put stores the record, overwriting any record at the same key. It returns true
// when the key is new.
func (s *recordStore) put(record entity.FlightRecord) bool {
	key := record.Key()
	if existing, ok := s.records[key]; ok {
		record.Seq = existing.Seq
		s.records[key] = &record
		return false
	}

	if record.Seq == 0 {
		s.nextSeq++
		record.Seq = s.nextSeq
	} else if record.Seq > s.nextSeq {
		s.nextSeq = record.Seq
	}
	s.records[key] = &record
	s.perFlight[key.FlightNumber]++
	return true
}

// seqFor returns the sequence the key has or would get on insertion
func (s *recordStore) seqFor(key entity.FlightKey, pending int64) int64 {
	if existing, ok := s.records[key]; ok {
		return existing.Seq
	}
	return s.nextSeq + pending
}

func (s *recordStore) exists(flightNumber string) bool {
	return s.perFlight[flightNumber] > 0
}

func (s *recordStore) has(key entity.FlightKey) bool {
	_, ok := s.records[key]
	return ok
}

func (s *recordStore) get(key entity.FlightKey) (entity.FlightRecord, bool) {
	r, ok := s.records[key]
	if !ok {
		return entity.FlightRecord{}, false
	}
	return copyRecord(*r), true
}

func (s *recordStore) setStatus(key entity.FlightKey, status entity.FlightStatus) bool {
	r, ok := s.records[key]
	if !ok {
		return false
	}
	r.Status = status
	return true
}

func (s *recordStore) setCurrentStatus(flightNumber, status string) {
	s.currentStatus[flightNumber] = status
}

func (s *recordStore) current(flightNumber string) string {
	return s.currentStatus[flightNumber]
}

func (s *recordStore) len() int {
	return len(s.records)
}

func copyRecord(r entity.FlightRecord) entity.FlightRecord {
	if r.Segments != nil {
		segments := make([]entity.MarketingSegment, len(r.Segments))
		copy(segments, r.Segments)
		r.Segments = segments
	}
	return r
}
