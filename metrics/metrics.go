package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relaygate_active_sessions",
		Help: "Number of live websocket sessions.",
	})
	ConnectedUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relaygate_connected_users",
		Help: "Number of distinct authenticated users with at least one session.",
	})
	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaygate_events_received_total",
		Help: "Inbound events by type, including unknown.",
	}, []string{"event"})
	Deliveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaygate_deliveries_total",
		Help: "Outbound event deliveries attempted.",
	})
	DeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaygate_delivery_failures_total",
		Help: "Deliveries dropped because the send queue was closed or full.",
	})
	EventsRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaygate_events_rate_limited_total",
		Help: "Inbound events dropped by the per-connection rate limit.",
	})
	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaygate_auth_failures_total",
		Help: "Authentication attempts rejected, timed out, or shed by the breaker.",
	})
)
