package interceptor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for the requests counter.
const (
	outcomeHit              = "hit"
	outcomeNetwork          = "network"
	outcomeInvalid          = "invalid"
	outcomeStaleFallback    = "stale_fallback"
	outcomeOffline          = "offline"
	outcomeNetworkError     = "network_error"
	outcomePassthrough      = "passthrough"
	outcomeRevalidated      = "revalidated"
	outcomeRevalidateFailed = "revalidate_failed"
)

// Metrics holds Prometheus metrics for the network boundary.
type Metrics struct {
	Requests    *prometheus.CounterVec
	CacheWrites *prometheus.CounterVec
}

// NewMetrics registers interceptor metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodbridge_interceptor_requests_total",
			Help: "Intercepted requests by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		CacheWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodbridge_interceptor_cache_writes_total",
			Help: "Responses persisted per named cache",
		}, []string{"cache"}),
	}
}

func (m *Metrics) observe(strategy Strategy, outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(strategy.String(), outcome).Inc()
}

func (m *Metrics) wrote(cacheName string) {
	if m == nil {
		return
	}
	m.CacheWrites.WithLabelValues(cacheName).Inc()
}
