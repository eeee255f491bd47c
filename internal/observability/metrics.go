package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paceon_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paceon_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnectionsTotal is the gauge of active feed WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "paceon_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// FeedEventsPublished counts broadcast feed events by kind.
	FeedEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paceon_feed_events_published_total",
		Help: "Total number of feed events published, by event kind",
	}, []string{"kind"})

	// FeedPagesServed counts feed page requests by filter.
	FeedPagesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paceon_feed_pages_served_total",
		Help: "Total number of feed pages served, by filter",
	}, []string{"filter"})

	// ReactionToggles counts like and save toggles by action and direction.
	ReactionToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paceon_reaction_toggles_total",
		Help: "Total number of like/save toggles, by action and direction",
	}, []string{"action", "direction"})

	// WebSocketBackpressureDrops counts messages dropped because a client's
	// send buffer was full or closed.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paceon_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// ProfileCacheHits counts profile cache lookups by outcome.
	ProfileCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paceon_profile_cache_lookups_total",
		Help: "Total number of profile cache lookups, by outcome",
	}, []string{"outcome"})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}
