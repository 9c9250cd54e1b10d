package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	FlightsInserted      prometheus.Counter
	FlightsOverwritten   prometheus.Counter
	StatusUpdates        prometheus.Counter
	SubscriptionsAdded   prometheus.Counter
	SubscriptionsRemoved prometheus.Counter
	EventsPublished      *prometheus.CounterVec
	QueryTime            prometheus.Histogram
	StoredRecords        prometheus.Gauge
	ActiveSubscriptions  prometheus.Gauge
	ErrorsCount          *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics registered on reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FlightsInserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_inserted_total",
			Help:      "The total number of flight records written",
		}),
		FlightsOverwritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_overwritten_total",
			Help:      "The total number of writes that replaced an existing flight record",
		}),
		StatusUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_updates_total",
			Help:      "The total number of flight status updates",
		}),
		SubscriptionsAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_added_total",
			Help:      "The total number of subscriptions added",
		}),
		SubscriptionsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_removed_total",
			Help:      "The total number of subscriptions actually removed",
		}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "The total number of change feed events published",
		}, []string{"type"}),
		QueryTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "range_query_time_seconds",
			Help:      "Time taken to answer flight detail range queries",
			Buckets:   prometheus.DefBuckets,
		}),
		StoredRecords: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_records",
			Help:      "The number of flight records currently stored",
		}),
		ActiveSubscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_subscriptions",
			Help:      "The number of subscription tuples currently subscribed",
		}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation", "kind"}),
	}
}
