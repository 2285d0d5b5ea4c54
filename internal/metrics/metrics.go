package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the review and stewardship
// services. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ReviewTransitions   *prometheus.CounterVec
	StewardshipChanges  *prometheus.CounterVec
	AggregateRecomputes prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReviewTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewhub_review_transitions_total",
			Help: "Committed review lifecycle transitions by kind",
		}, []string{"transition"}),
		StewardshipChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewhub_stewardship_changes_total",
			Help: "Committed stewardship grants and revocations",
		}, []string{"action"}),
		AggregateRecomputes: factory.NewCounter(prometheus.CounterOpts{
			Name: "reviewhub_aggregate_recomputes_total",
			Help: "Venue rating aggregate recomputations",
		}),
	}
}

func (m *Metrics) ObserveReviewTransition(transition string) {
	if m == nil {
		return
	}
	m.ReviewTransitions.WithLabelValues(transition).Inc()
}

func (m *Metrics) ObserveStewardshipChange(action string) {
	if m == nil {
		return
	}
	m.StewardshipChanges.WithLabelValues(action).Inc()
}

func (m *Metrics) ObserveRecompute() {
	if m == nil {
		return
	}
	m.AggregateRecomputes.Inc()
}
