package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comictalk_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "comictalk_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Real-time metrics
	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "comictalk_online_users",
			Help: "Users currently present in the presence directory",
		},
	)

	HandshakeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "comictalk_ws_handshake_failures_total",
			Help: "Websocket connections refused at authentication",
		},
	)

	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comictalk_ws_events_total",
			Help: "Websocket events handled, by event name and outcome",
		},
		[]string{"event", "outcome"},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comictalk_messages_sent_total",
			Help: "Messages persisted, by channel",
		},
		[]string{"channel"}, // "ws" or "http"
	)

	DroppedDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "comictalk_ws_dropped_deliveries_total",
			Help: "Frames dropped because the client was gone or its buffer was full",
		},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comictalk_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"scope"},
	)
)
