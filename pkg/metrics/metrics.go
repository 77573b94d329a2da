package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what flows through the engine.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Samples            *prometheus.CounterVec
	Transitions        *prometheus.CounterVec
	HarmonicMismatches prometheus.Counter
	SessionsStarted    prometheus.Counter
	SessionsCompleted  prometheus.Counter
}

// New registers the engine metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Samples: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tuner_samples_total",
			Help: "Pitch samples received, by result (accepted, dropped).",
		}, []string{"result"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intonation_transitions_total",
			Help: "String status changes, by new status.",
		}, []string{"status"}),
		HarmonicMismatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "intonation_harmonic_mismatches_total",
			Help: "Harmonics rejected for being too far from the octave.",
		}),
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "intonation_sessions_started_total",
			Help: "Intonation sessions started.",
		}),
		SessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "intonation_sessions_completed_total",
			Help: "Intonation sessions with all strings verified.",
		}),
	}
}

func (m *Metrics) SampleAccepted() {
	if m == nil {
		return
	}
	m.Samples.WithLabelValues("accepted").Inc()
}

func (m *Metrics) SampleDropped() {
	if m == nil {
		return
	}
	m.Samples.WithLabelValues("dropped").Inc()
}

func (m *Metrics) Transition(status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) Mismatch() {
	if m == nil {
		return
	}
	m.HarmonicMismatches.Inc()
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

func (m *Metrics) SessionCompleted() {
	if m == nil {
		return
	}
	m.SessionsCompleted.Inc()
}
