package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PubSubSubscribersActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pubsub_subscribers_active",
			Help: "Number of live subscribers per topic",
		},
		[]string{"topic"},
	)

	PubSubEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubsub_events_published_total",
			Help: "Total number of events published per topic",
		},
		[]string{"topic"},
	)

	PubSubSubscribersEvicted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubsub_subscribers_evicted_total",
			Help: "Total number of subscribers disconnected because their queue was full",
		},
		[]string{"topic"},
	)
)
