package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RoundStarted("episode")
	m.RoundStarted("episode")
	m.RoundEnded("mixed", "out of lives")
	m.Submission("fallback")
	m.QuestionExcluded()

	if got := testutil.ToFloat64(m.roundsStarted.WithLabelValues("episode")); got != 2 {
		t.Fatalf("expected 2 episode starts, got %v", got)
	}
	if got := testutil.ToFloat64(m.roundsEnded.WithLabelValues("mixed", "out of lives")); got != 1 {
		t.Fatalf("expected 1 mixed end, got %v", got)
	}
	if got := testutil.ToFloat64(m.submissions.WithLabelValues("fallback")); got != 1 {
		t.Fatalf("expected 1 fallback submission, got %v", got)
	}
	if got := testutil.ToFloat64(m.questionsExcluded); got != 1 {
		t.Fatalf("expected 1 exclusion, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RoundStarted("episode")
	m.RoundEnded("episode", "episode complete")
	m.Answer("correct")
	m.Submission("ok")
	m.QuestionExcluded()
	m.LowConfidenceQuestion()
}
