package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/filmfriends/backend/internal/models"
)

var (
	EventsAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmfriends_events_appended_total",
			Help: "Events appended to the activity log",
		},
		[]string{"event_type", "operation"},
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmfriends_recommendations_total",
			Help: "Recommendation requests by outcome",
		},
		[]string{"outcome"}, // "hit", "computed", "empty", "error"
	)

	RecommendationCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmfriends_recommendation_cache_total",
			Help: "Recommendation cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "error"
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filmfriends_events_published_total",
			Help: "Events published to the message broker",
		},
		[]string{"status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filmfriends_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordHTTPRequest observes a finished HTTP request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordRecommendation counts a recommendation outcome.
func RecordRecommendation(outcome string) {
	Recommendations.WithLabelValues(outcome).Inc()
}

// RecordCacheLookup counts a recommendation cache lookup.
func RecordCacheLookup(result string) {
	RecommendationCache.WithLabelValues(result).Inc()
}

// RecordPublish counts a broker publish attempt.
func RecordPublish(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EventsPublished.WithLabelValues(status).Inc()
}

// EventCounter counts appended events by type and operation.
type EventCounter struct{}

// Observe implements social.EventSink.
func (EventCounter) Observe(_ context.Context, event models.Event) error {
	EventsAppended.WithLabelValues(string(event.Type), string(event.Operation)).Inc()
	return nil
}
