package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitord_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "monitord_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Engine metrics
	TicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "monitord_ticks_total",
			Help: "Total number of evaluation ticks",
		},
	)

	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "monitord_tick_duration_seconds",
			Help:    "Time taken by one generator/evaluator/store tick",
			Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05},
		},
	)

	AlertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitord_alerts_created_total",
			Help: "Total number of alerts created",
		},
		[]string{"kind", "severity"},
	)

	AlertsAcknowledgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "monitord_alerts_acknowledged_total",
			Help: "Total number of alerts acknowledged",
		},
	)

	AlertsResolvedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "monitord_alerts_resolved_total",
			Help: "Total number of alerts resolved",
		},
	)

	OpenAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "monitord_open_alerts",
			Help: "Number of currently unresolved alerts",
		},
	)

	// Audio scheduler metrics
	TonesScheduledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitord_tones_scheduled_total",
			Help: "Total number of tone sequences scheduled",
		},
		[]string{"cue"},
	)

	// Event dispatcher metrics
	EventQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "monitord_event_queue_size",
			Help: "Current size of the alert event queue",
		},
	)

	EventQueueCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "monitord_event_queue_capacity",
			Help: "Capacity of the alert event queue",
		},
	)

	EventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "monitord_events_dropped_total",
			Help: "Total number of alert events dropped because the queue was full",
		},
	)

	DispatcherPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "monitord_dispatcher_published_total",
			Help: "Total number of alert events published by the dispatcher",
		},
	)

	DispatcherFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "monitord_dispatcher_failed_total",
			Help: "Total number of alert events that failed to publish",
		},
	)

	DispatcherBatchPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "monitord_dispatcher_batch_publish_duration_seconds",
			Help:    "Time taken to publish a batch of alert events",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// Kafka producer metrics
	KafkaPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitord_kafka_publish_total",
			Help: "Total number of messages published to Kafka",
		},
		[]string{"status"}, // status: success, failed
	)

	KafkaPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "monitord_kafka_publish_duration_seconds",
			Help:    "Time taken to publish to Kafka",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	KafkaPublishRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "monitord_kafka_publish_retries_total",
			Help: "Total number of Kafka publish retries",
		},
	)

	KafkaBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "monitord_kafka_bytes_written_total",
			Help: "Total bytes written to Kafka",
		},
	)

	// WebSocket hub metrics
	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "monitord_ws_clients",
			Help: "Number of connected WebSocket clients",
		},
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitord_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
