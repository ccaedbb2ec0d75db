package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Crowdchain metrics collector, shared by the read gateway and any sidecar
// that wants to report platform health.

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all Crowdchain metrics
type Collector struct {
	// Contribution metrics
	ContributionsTotal *prometheus.CounterVec
	ContributionValue  *prometheus.CounterVec
	FeeValue           *prometheus.CounterVec
	EffectiveFeeBps    *prometheus.GaugeVec

	// Pool metrics
	PoolsTotal     prometheus.Counter
	PoolsByStatus  *prometheus.GaugeVec
	PoolRaised     *prometheus.GaugeVec
	PoolsClosed    *prometheus.CounterVec
	ReleasedValue  *prometheus.CounterVec
	CloseApprovals *prometheus.CounterVec

	// WebSocket metrics
	WSConnectionsActive *prometheus.GaugeVec
	WSMessagesTotal     *prometheus.CounterVec
	WSMessageLatency    *prometheus.HistogramVec
	WSSubscriptions     *prometheus.GaugeVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	APIErrorsTotal    *prometheus.CounterVec
	RateLimitHits     *prometheus.CounterVec

	// System metrics
	BlockHeight prometheus.Gauge
	BlockTime   *prometheus.HistogramVec
	EventLag    *prometheus.HistogramVec
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

// newCollector creates a new metrics collector
func newCollector() *Collector {
	c := &Collector{}

	// Contribution metrics
	c.ContributionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crowdchain",
			Subsystem: "contributions",
			Name:      "total",
			Help:      "Total number of contributions observed",
		},
		[]string{"pool_id", "asset"},
	)

	c.ContributionValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crowdchain",
			Subsystem: "contributions",
			Name:      "net_value",
			Help:      "Total net value credited to pools, per asset",
		},
		[]string{"asset"},
	)

	c.FeeValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crowdchain",
			Subsystem: "contributions",
			Name:      "fee_value",
			Help:      "Total platform fee value collected, per asset",
		},
		[]string{"asset"},
	)

	c.EffectiveFeeBps = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "crowdchain",
			Subsystem: "fees",
			Name:      "effective_bps",
			Help:      "Last observed effective fee rate in basis points, per asset",
		},
		[]string{"asset"},
	)

	// Pool metrics
	c.PoolsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "crowdchain",
			Subsystem: "pools",
			Name:      "created_total",
			Help:      "Total number of pools created",
		},
	)

	c.PoolsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "crowdchain",
			Subsystem: "pools",
			Name:      "by_status",
			Help:      "Number of pools in each lifecycle status",
		},
		[]string{"status"},
	)

	c.PoolRaised = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "crowdchain",
			Subsystem: "pools",
			Name:      "raised",
			Help:      "Net amount raised per pool",
		},
		[]string{"pool_id"},
	)

	c.PoolsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crowdchain",
			Subsystem: "pools",
			Name:      "closed_total",
			Help:      "Total pools closed, by the status they closed from",
		},
		[]string{"from_status"},
	)

	c.ReleasedValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crowdchain",
			Subsystem: "pools",
			Name:      "released_value",
			Help:      "Total value released to creators, per asset",
		},
		[]string{"asset"},
	)

	c.CloseApprovals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crowdchain",
			Subsystem: "pools",
			Name:      "close_approvals_total",
			Help:      "Total close approvals recorded",
		},
		[]string{"pool_id"},
	)

	// WebSocket metrics
	c.WSConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "crowdchain",
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
		[]string{},
	)

	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crowdchain",
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages sent",
		},
		[]string{"channel"},
	)

	c.WSMessageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crowdchain",
			Subsystem: "websocket",
			Name:      "message_latency_ms",
			Help:      "WebSocket message latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100},
		},
		[]string{"channel"},
	)

	c.WSSubscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "crowdchain",
			Subsystem: "websocket",
			Name:      "subscriptions",
			Help:      "Number of active subscriptions per channel",
		},
		[]string{"channel"},
	)

	// API metrics
	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crowdchain",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crowdchain",
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	c.APIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crowdchain",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Total API errors",
		},
		[]string{"method", "path", "error_type"},
	)

	c.RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crowdchain",
			Subsystem: "api",
			Name:      "rate_limit_hits",
			Help:      "Total rate limit hits",
		},
		[]string{"limit_type"},
	)

	// System metrics
	c.BlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "crowdchain",
			Subsystem: "system",
			Name:      "block_height",
			Help:      "Latest block height seen by the gateway",
		},
	)

	c.BlockTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crowdchain",
			Subsystem: "system",
			Name:      "block_time_ms",
			Help:      "Block time in milliseconds",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000},
		},
		[]string{},
	)

	c.EventLag = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crowdchain",
			Subsystem: "system",
			Name:      "event_lag_ms",
			Help:      "Delay between chain event emission and gateway processing",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 5000},
		},
		[]string{"event_type"},
	)

	// Register all metrics
	c.registerAll()

	return c
}

// registerAll registers all metrics with Prometheus
func (c *Collector) registerAll() {
	// Contribution metrics
	prometheus.MustRegister(c.ContributionsTotal)
	prometheus.MustRegister(c.ContributionValue)
	prometheus.MustRegister(c.FeeValue)
	prometheus.MustRegister(c.EffectiveFeeBps)

	// Pool metrics
	prometheus.MustRegister(c.PoolsTotal)
	prometheus.MustRegister(c.PoolsByStatus)
	prometheus.MustRegister(c.PoolRaised)
	prometheus.MustRegister(c.PoolsClosed)
	prometheus.MustRegister(c.ReleasedValue)
	prometheus.MustRegister(c.CloseApprovals)

	// WebSocket metrics
	prometheus.MustRegister(c.WSConnectionsActive)
	prometheus.MustRegister(c.WSMessagesTotal)
	prometheus.MustRegister(c.WSMessageLatency)
	prometheus.MustRegister(c.WSSubscriptions)

	// API metrics
	prometheus.MustRegister(c.APIRequestsTotal)
	prometheus.MustRegister(c.APIRequestLatency)
	prometheus.MustRegister(c.APIErrorsTotal)
	prometheus.MustRegister(c.RateLimitHits)

	// System metrics
	prometheus.MustRegister(c.BlockHeight)
	prometheus.MustRegister(c.BlockTime)
	prometheus.MustRegister(c.EventLag)
}

// ============ Recording Helpers ============

// RecordContribution records a contribution event with its fee split
func (c *Collector) RecordContribution(poolID, asset string, net, fee float64) {
	c.ContributionsTotal.WithLabelValues(poolID, asset).Inc()
	c.ContributionValue.WithLabelValues(asset).Add(net)
	if fee > 0 {
		c.FeeValue.WithLabelValues(asset).Add(fee)
	}
}

// RecordPoolCreated records a pool creation
func (c *Collector) RecordPoolCreated() {
	c.PoolsTotal.Inc()
}

// RecordPoolStatus updates the per-status pool gauges
func (c *Collector) RecordPoolStatus(status string, count int) {
	c.PoolsByStatus.WithLabelValues(status).Set(float64(count))
}

// RecordPoolRaised updates a pool's raised gauge
func (c *Collector) RecordPoolRaised(poolID string, raised float64) {
	c.PoolRaised.WithLabelValues(poolID).Set(raised)
}

// RecordPoolClosed records a pool close and the released value
func (c *Collector) RecordPoolClosed(fromStatus, asset string, released float64) {
	c.PoolsClosed.WithLabelValues(fromStatus).Inc()
	if released > 0 {
		c.ReleasedValue.WithLabelValues(asset).Add(released)
	}
}

// RecordCloseApproval records a close approval event
func (c *Collector) RecordCloseApproval(poolID string) {
	c.CloseApprovals.WithLabelValues(poolID).Inc()
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordWSConnection records WebSocket connection changes
func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.WithLabelValues().Add(float64(delta))
}

// RecordWSMessage records a WebSocket message
func (c *Collector) RecordWSMessage(channel string, latencyMs float64) {
	c.WSMessagesTotal.WithLabelValues(channel).Inc()
	c.WSMessageLatency.WithLabelValues(channel).Observe(latencyMs)
}

// RecordEventLag records how far behind the chain the gateway is processing
func (c *Collector) RecordEventLag(eventType string, lagMs float64) {
	c.EventLag.WithLabelValues(eventType).Observe(lagMs)
}

// UpdateBlockHeight updates the latest observed block height
func (c *Collector) UpdateBlockHeight(height int64) {
	c.BlockHeight.Set(float64(height))
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
