package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Chat state metrics
	ChatroomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_rooms_active",
			Help: "Number of chatrooms currently held by the store",
		},
	)

	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total number of messages appended, by sender",
		},
		[]string{"sender"},
	)

	RepliesPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_replies_pending",
			Help: "Number of simulated AI replies currently scheduled",
		},
	)

	// Event stream metrics
	EventClientsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_clients_active",
			Help: "Number of active WebSocket event subscribers",
		},
	)

	EventsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_sent_total",
			Help: "Total number of state-change events delivered",
		},
		[]string{"type"},
	)
)
