package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roombook"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	bookingOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_operations_total",
			Help:      "Booking create and cancel attempts by outcome.",
		},
		[]string{"operation", "outcome"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_cache_lookups_total",
			Help:      "Availability cache lookups by result.",
		},
		[]string{"result"},
	)

	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_messages_published_total",
			Help:      "Kafka publish attempts by topic and result.",
		},
		[]string{"topic", "result"},
	)

	publishDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_duration_seconds",
			Help:      "Kafka publish latency.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Booking outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeConflict  = "conflict"
	OutcomeNotFound  = "not_found"
	OutcomeForbidden = "forbidden"
	OutcomeError     = "error"
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			bookingOutcomes,
			cacheLookups,
			eventsPublished,
			publishDuration,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func IncBooking(operation, outcome string) {
	bookingOutcomes.WithLabelValues(operation, outcome).Inc()
}

func IncCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

func ObservePublish(topic string, err error, elapsed time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	eventsPublished.WithLabelValues(topic, result).Inc()
	publishDuration.Observe(elapsed.Seconds())
}
