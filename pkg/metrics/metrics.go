package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Lifecycle transitions (satisfied / revoked) per milestone label.
	MilestoneTransitionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "milestone_transition_count",
			Help: "Total number of project milestone transitions",
		},
		[]string{"milestone", "kind"}, // kind: satisfied, revoked
	)

	// Recipients resolved per notification fan-out.
	NotificationFanoutSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_fanout_size",
			Help:    "Number of recipients resolved per milestone transition",
			Buckets: prometheus.LinearBuckets(0, 2, 10), // 0 to 18 recipients
		},
		[]string{"kind"},
	)

	// Messages persisted.
	MessageCreatedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "message_created_count",
			Help: "Total number of notification messages created",
		},
		[]string{"kind"},
	)

	// Delivery attempts in the worker.
	NotificationDeliveryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_delivery_count",
			Help: "Total number of notification deliveries processed",
		},
		[]string{"channel", "status"}, // status: sent, duplicate, failed
	)

	// Sister family operations.
	FamilyOperationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "family_operation_count",
			Help: "Total number of sister family operations",
		},
		[]string{"operation"}, // add, merge, remove, dissolve
	)

	// Database query latency (seconds).
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	// HTTP request latency (seconds).
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)
)

// RecordTransition counts one milestone transition.
func RecordTransition(milestone, kind string) {
	MilestoneTransitionCount.WithLabelValues(milestone, kind).Inc()
}

// RecordFanout records the recipient count of one fan-out.
func RecordFanout(kind string, recipients int) {
	NotificationFanoutSize.WithLabelValues(kind).Observe(float64(recipients))
}

// RecordMessageCreated counts one persisted message.
func RecordMessageCreated(kind string) {
	MessageCreatedCount.WithLabelValues(kind).Inc()
}

// RecordDelivery counts one delivery attempt in the worker.
func RecordDelivery(channel, status string) {
	NotificationDeliveryCount.WithLabelValues(channel, status).Inc()
}

// RecordFamilyOperation counts one sister family mutation.
func RecordFamilyOperation(operation string) {
	FamilyOperationCount.WithLabelValues(operation).Inc()
}

// RecordDBQueryDuration records the latency of one database query.
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordHTTPRequestDuration records the latency of one HTTP request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
