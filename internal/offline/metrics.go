package offline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeApplied  = "applied"
	outcomeQueued   = "queued"
	outcomeRejected = "rejected"
)

type Metrics struct {
	Submissions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Submissions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "bloodbridge_offline_submissions_total",
			Help: "Mutations submitted through the offline layer by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) submitted(outcome string) {
	if m != nil {
		m.Submissions.WithLabelValues(outcome).Inc()
	}
}
