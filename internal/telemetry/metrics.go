package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "trivia"

// Metrics holds round and ingestion counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	roundsStarted     *prometheus.CounterVec
	roundsEnded       *prometheus.CounterVec
	answers           *prometheus.CounterVec
	submissions       *prometheus.CounterVec
	questionsExcluded prometheus.Counter
	lowConfidence     prometheus.Counter
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		roundsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_started_total",
			Help:      "Rounds started, by mode.",
		}, []string{"mode"}),
		roundsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_ended_total",
			Help:      "Rounds ended, by mode and cause.",
		}, []string{"mode", "cause"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Resolved questions, by outcome.",
		}, []string{"outcome"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Score submissions, by result.",
		}, []string{"result"}),
		questionsExcluded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_excluded_total",
			Help:      "Upstream questions dropped during normalization.",
		}),
		lowConfidence: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_low_confidence_total",
			Help:      "Questions whose correct option was assumed rather than read.",
		}),
	}
	reg.MustRegister(m.roundsStarted, m.roundsEnded, m.answers, m.submissions, m.questionsExcluded, m.lowConfidence)
	return m
}

func (m *Metrics) RoundStarted(mode string) {
	if m == nil {
		return
	}
	m.roundsStarted.WithLabelValues(mode).Inc()
}

func (m *Metrics) RoundEnded(mode, cause string) {
	if m == nil {
		return
	}
	m.roundsEnded.WithLabelValues(mode, cause).Inc()
}

func (m *Metrics) Answer(outcome string) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(outcome).Inc()
}

// Submission results: ok, fallback, queued, rejected, flushed, dropped.
func (m *Metrics) Submission(result string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
}

func (m *Metrics) QuestionExcluded() {
	if m == nil {
		return
	}
	m.questionsExcluded.Inc()
}

func (m *Metrics) LowConfidenceQuestion() {
	if m == nil {
		return
	}
	m.lowConfidence.Inc()
}
