package synccoord

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	drainCompleted = "completed"
	drainSkipped   = "skipped"
	drainFailed    = "failed"
)

type Metrics struct {
	ItemsSynced   *prometheus.CounterVec
	ItemsFailed   *prometheus.CounterVec
	Drains        *prometheus.CounterVec
	DrainDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ItemsSynced: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodbridge_sync_items_synced_total",
			Help: "Queued mutations applied upstream and removed from the queue",
		}, []string{"kind"}),
		ItemsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodbridge_sync_items_failed_total",
			Help: "Queued mutation replays that failed and stay pending",
		}, []string{"kind"}),
		Drains: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodbridge_sync_drains_total",
			Help: "Drain attempts by outcome",
		}, []string{"outcome"}),
		DrainDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodbridge_sync_drain_duration_seconds",
			Help:    "Time spent draining one queue snapshot",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) itemSynced(kind string) {
	if m != nil {
		m.ItemsSynced.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) itemFailed(kind string) {
	if m != nil {
		m.ItemsFailed.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) drain(outcome string) {
	if m != nil {
		m.Drains.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) observeDrain(d time.Duration) {
	if m != nil {
		m.DrainDuration.Observe(d.Seconds())
	}
}
