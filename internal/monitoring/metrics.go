package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	queueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_queue_operations_total",
			Help: "Total live queue operations by outcome",
		},
		[]string{"operation", "status"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_sessions_active",
			Help: "Current number of active live sessions",
		},
	)

	autoSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "live_queue_auto_skipped_total",
			Help: "Queue entries skipped by the expiry sweep",
		},
	)

	meetingLinks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_links_created_total",
			Help: "Meeting links created by provider outcome",
		},
		[]string{"status"},
	)
)

// RecordQueueOperation counts one queue operation. Status is "ok" or the
// error code that rejected it.
func RecordQueueOperation(operation, status string) {
	queueOperations.WithLabelValues(operation, status).Inc()
}

func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

func RecordAutoSkipped(n int) {
	if n > 0 {
		autoSkipped.Add(float64(n))
	}
}

func RecordMeetingLink(status string) {
	meetingLinks.WithLabelValues(status).Inc()
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
