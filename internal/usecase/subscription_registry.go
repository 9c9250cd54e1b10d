package usecase

import (
	"flightstatus-oracle/internal/domain/entity"
)

// subscriptionRegistry maps subscription tuples to their subscribed flag
type subscriptionRegistry struct {
	entries map[entity.SubscriptionKey]bool
}

func newSubscriptionRegistry() *subscriptionRegistry {
	return &subscriptionRegistry{entries: make(map[entity.SubscriptionKey]bool)}
}

func (r *subscriptionRegistry) isSubscribed(key entity.SubscriptionKey) bool {
	return r.entries[key]
}

func (r *subscriptionRegistry) subscribe(key entity.SubscriptionKey) {
	r.entries[key] = true
}

func (r *subscriptionRegistry) unsubscribe(key entity.SubscriptionKey) {
	delete(r.entries, key)
}

// count returns the number of subscribed tuples
func (r *subscriptionRegistry) count() int {
	return len(r.entries)
}
