package usecase

// pairKey identifies a (flight number, carrier) pair
type pairKey struct {
	flightNumber string
	carrier      string
}

// dateIndex keeps, per (flight number, carrier), the dates that have a record in
// insertion order without duplicates.
type dateIndex struct {
	dates map[pairKey][]string
	seen  map[pairKey]map[string]struct{}
}

func newDateIndex() *dateIndex {
	return &dateIndex{
		dates: make(map[pairKey][]string),
		seen:  make(map[pairKey]map[string]struct{}),
	}
}

// add appends date for the pair unless it is already present
func (i *dateIndex) add(flightNumber, carrier, date string) {
	k := pairKey{flightNumber: flightNumber, carrier: carrier}
	set, ok := i.seen[k]
	if !ok {
		set = make(map[string]struct{})
		i.seen[k] = set
	}
	if _, dup := set[date]; dup {
		return
	}
	set[date] = struct{}{}
	i.dates[k] = append(i.dates[k], date)
}

// datesFor returns a copy of the stored sequence, empty when the pair is unknown
func (i *dateIndex) datesFor(flightNumber, carrier string) []string {
	stored := i.dates[pairKey{flightNumber: flightNumber, carrier: carrier}]
	out := make([]string, len(stored))
	copy(out, stored)
	return out
}
