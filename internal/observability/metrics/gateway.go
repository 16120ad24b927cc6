package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of gateway HTTP requests",
		},
		[]string{"method", "path"},
	)

	GatewayRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_requests_in_flight",
			Help: "Number of gateway HTTP requests currently being processed",
		},
	)

	GatewayRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of gateway HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	GraphQLOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphql_operations_total",
			Help: "Total number of GraphQL operations by type and outcome",
		},
		[]string{"operation", "outcome"},
	)

	GraphQLFieldDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphql_field_duration_seconds",
			Help:    "Duration of root field resolution in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"field"},
	)

	GraphQLErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphql_errors_total",
			Help: "Total number of GraphQL errors by code",
		},
		[]string{"code"},
	)
)
