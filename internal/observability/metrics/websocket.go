package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebSocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	WebSocketConnectionsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_websocket_connections_rejected_total",
			Help: "Total number of WebSocket connections rejected due to max connections limit",
		},
	)

	WebSocketSubscriptionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_websocket_subscriptions_active",
			Help: "Number of active GraphQL subscriptions",
		},
	)

	WebSocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_websocket_messages_total",
			Help: "Total number of WebSocket protocol messages by type and direction",
		},
		[]string{"message_type", "direction"},
	)

	WebSocketErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_websocket_errors_total",
			Help: "Total number of WebSocket errors by type",
		},
		[]string{"error_type"},
	)

	WebSocketDisconnections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_websocket_disconnections_total",
			Help: "Total number of WebSocket disconnections",
		},
		[]string{"reason"},
	)

	WebSocketDroppedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_websocket_dropped_messages_total",
			Help: "Total number of outbound messages dropped due to slow clients",
		},
		[]string{"message_type"},
	)
)
