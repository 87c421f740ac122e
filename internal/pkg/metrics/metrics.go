// Package metrics declares the Prometheus collectors for presence and chat fan-out.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Gauges
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arcadelive_active_rooms",
		Help: "Number of stream rooms with at least one joined session",
	})
	ConnectedSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arcadelive_connected_sessions",
		Help: "Number of open real-time sessions",
	})

	// Counters
	ViewerCountBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arcadelive_viewer_count_broadcasts_total",
		Help: "Number of viewer_count events broadcast to rooms",
	})
	ChatMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arcadelive_chat_messages_total",
		Help: "Number of chat messages broadcast to rooms",
	})
	DroppedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arcadelive_dropped_events_total",
		Help: "Inbound events dropped before reaching a room, by reason",
	}, []string{"reason"})
	DeliveriesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arcadelive_deliveries_dropped_total",
		Help: "Outbound events not queued because the recipient's send buffer was full",
	})
	HistoryAppendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arcadelive_history_append_failures_total",
		Help: "History cache appends that returned an error",
	})
	HistoryAppendsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arcadelive_history_appends_dropped_total",
		Help: "History cache appends dropped because the writer queue was full or closed",
	})

	// Histograms (seconds)
	HistoryAppendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arcadelive_history_append_duration_seconds",
		Help:    "History cache append latency",
		Buckets: prometheus.DefBuckets,
	})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
