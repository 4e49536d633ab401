package providers

import (
	"time"

	"ard/internal/structures"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncInboundMessages(chatType string)
	IncRulesMatched()
	IncSends(outcome string)
	IncStrikeOuts()
	AddReconciledReplies(count int)
	ObservePersistenceDuration(duration time.Duration)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	inboundMessages     *prometheus.CounterVec
	rulesMatched        prometheus.Counter
	sendsTotal          *prometheus.CounterVec
	strikeOuts          prometheus.Counter
	reconciledReplies   prometheus.Counter
	persistenceDuration prometheus.Histogram
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncInboundMessages(chatType string) {
	m.inboundMessages.WithLabelValues(chatType).Inc()
}

func (m *MetricsProvider) IncRulesMatched() {
	m.rulesMatched.Inc()
}

func (m *MetricsProvider) IncSends(outcome string) {
	m.sendsTotal.WithLabelValues(outcome).Inc()
}

func (m *MetricsProvider) IncStrikeOuts() {
	m.strikeOuts.Inc()
}

func (m *MetricsProvider) AddReconciledReplies(count int) {
	m.reconciledReplies.Add(float64(count))
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ard_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ard_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ard_cache_hits_total",
			Help: "Total number of identity cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ard_cache_misses_total",
			Help: "Total number of identity cache misses",
		}),

		inboundMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ard_inbound_messages_total",
			Help: "Total number of inbound messages by chat type",
		}, []string{"chat_type"}),

		rulesMatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ard_rules_matched_total",
			Help: "Total number of rule matches on group messages",
		}),

		sendsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ard_sends_total",
			Help: "Total number of outbound send attempts by outcome",
		}, []string{"outcome"}),

		strikeOuts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ard_strike_outs_total",
			Help: "Total number of rules auto-disabled by the strike-out policy",
		}),

		reconciledReplies: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ard_reconciled_replies_total",
			Help: "Total number of awaiting rules cleared from message history",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ard_persistence_duration_seconds",
			Help:    "Account record persistence duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                  {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration)  {}
func (n *noopMetrics) IncCacheHits()                                     {}
func (n *noopMetrics) IncCacheMisses()                                   {}
func (n *noopMetrics) IncInboundMessages(_ string)                       {}
func (n *noopMetrics) IncRulesMatched()                                  {}
func (n *noopMetrics) IncSends(_ string)                                 {}
func (n *noopMetrics) IncStrikeOuts()                                    {}
func (n *noopMetrics) AddReconciledReplies(_ int)                        {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)        {}
