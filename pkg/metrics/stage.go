package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StageMetrics counts lifecycle transitions per stage kind.
type StageMetrics struct {
	transitions *prometheus.CounterVec
}

// NewStageMetrics registers the stage transition counter on reg. A nil
// registerer yields a no-op collector.
func NewStageMetrics(reg prometheus.Registerer) *StageMetrics {
	if reg == nil {
		return &StageMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tna_stage_transitions_total",
		Help: "Stage lifecycle transitions by kind and transition.",
	}, []string{"kind", "transition"})
	reg.MustRegister(transitions)
	return &StageMetrics{transitions: transitions}
}

// IncTransition records one transition (accept, finish, reopen, delete, receive).
func (s *StageMetrics) IncTransition(kind, transition string) {
	if s == nil || s.transitions == nil {
		return
	}
	s.transitions.WithLabelValues(normalizeLabel(kind), normalizeLabel(transition)).Inc()
}
