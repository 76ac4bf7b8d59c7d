package app_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"trivia-client/internal/app"
	"trivia-client/internal/domain"
	"trivia-client/internal/telemetry"
)

func raws(items ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(items))
	for i, item := range items {
		out[i] = json.RawMessage(item)
	}
	return out
}

func TestNormalizeExplicitIDs(t *testing.T) {
	n := app.NewNormalizer(false, nil, nil)
	got, err := n.Normalize(raws(
		`{"id":"q1","text":"Capital of France?","options":[{"id":" a ","text":"Paris"},{"id":"b","text":"Rome"}],"correct_option":"a","difficulty":"hard"}`,
	))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []domain.Question{{
		ID:              "q1",
		Text:            "Capital of France?",
		Options:         []domain.Option{{ID: "A", Text: "Paris"}, {ID: "B", Text: "Rome"}},
		CorrectOptionID: "A",
		Difficulty:      domain.DifficultyHard,
		BasePoints:      50,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalized mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeLetterKeyedOptions(t *testing.T) {
	n := app.NewNormalizer(false, nil, nil)
	got, err := n.Normalize(raws(
		`{"id":"q9","text":"Which?","options":{"B":"two","A":"one","C":"three","D":""},"correct_answer":"c","difficulty":"kolay","points":12}`,
	))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []domain.Question{{
		ID:              "q9",
		Text:            "Which?",
		Options:         []domain.Option{{ID: "A", Text: "one"}, {ID: "B", Text: "two"}, {ID: "C", Text: "three"}},
		CorrectOptionID: "C",
		Difficulty:      domain.DifficultyEasy,
		BasePoints:      12,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalized mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeCorrectFlags(t *testing.T) {
	n := app.NewNormalizer(false, nil, nil)
	got, err := n.Normalize(raws(
		`{"id":7,"text":"Pick","options":[{"text":"x","is_correct":false},{"text":"y","is_correct":false},{"text":"z","is_correct":true}]}`,
	))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one question, got %d", len(got))
	}
	q := got[0]
	if q.ID != "7" || q.CorrectOptionID != "C" || q.LowConfidence {
		t.Fatalf("unexpected question %+v", q)
	}
	if q.Difficulty != domain.DifficultyMedium || q.BasePoints != 20 {
		t.Fatalf("expected medium default, got %s/%d", q.Difficulty, q.BasePoints)
	}
}

func TestNormalizeUnflaggedDefaultsToA(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	n := app.NewNormalizer(false, nil, metrics)

	got, err := n.Normalize(raws(
		`{"id":"q1","text":"Pick","options":[{"text":"x","is_correct":false},{"text":"y","is_correct":false}]}`,
		`{"text":"Bare","options":["one","two","three"]}`,
	))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected two questions, got %d", len(got))
	}
	for _, q := range got {
		if q.CorrectOptionID != "A" || !q.LowConfidence {
			t.Fatalf("expected low-confidence A, got %+v", q)
		}
	}
	if got[1].ID != "q_1" {
		t.Fatalf("expected positional id, got %q", got[1].ID)
	}

	// strict mode refuses the unflagged one but still accepts the bare shape
	strict := app.NewNormalizer(true, nil, metrics)
	got, err = strict.Normalize(raws(
		`{"id":"q1","text":"Pick","options":[{"text":"x","is_correct":false},{"text":"y","is_correct":false}]}`,
		`{"id":"q2","text":"Bare","options":["one","two"]}`,
	))
	if err != nil {
		t.Fatalf("strict normalize: %v", err)
	}
	if len(got) != 1 || got[0].ID != "q2" {
		t.Fatalf("expected only q2, got %+v", got)
	}

	if v := counterValue(t, reg, "trivia_questions_excluded_total"); v != 1 {
		t.Fatalf("expected one exclusion, got %v", v)
	}
	if v := counterValue(t, reg, "trivia_questions_low_confidence_total"); v != 3 {
		t.Fatalf("expected three low-confidence questions, got %v", v)
	}
}

func TestNormalizeExcludesMalformed(t *testing.T) {
	n := app.NewNormalizer(false, nil, nil)
	got, err := n.Normalize(raws(
		`{"id":"ok","text":"Fine","options":{"A":"1","B":"2"},"correct_answer":"B"}`,
		`{"id":"notext","text":"  ","options":{"A":"1","B":"2"},"correct_answer":"A"}`,
		`{"id":"one","text":"Lonely","options":{"A":"1"},"correct_answer":"A"}`,
		`{"id":"five","text":"Crowded","options":["1","2","3","4","5"]}`,
		`{"id":"missing","text":"Where","options":{"A":"1","B":"2"},"correct_answer":"D"}`,
		`{"id":"dupopt","text":"Twice","options":[{"id":"A","text":"1"},{"id":"a","text":"2"}],"correct_option":"A"}`,
		`{"id":"ok","text":"Again","options":{"A":"1","B":"2"},"correct_answer":"A"}`,
		`not json`,
	))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(got) != 1 || got[0].ID != "ok" || got[0].Text != "Fine" {
		t.Fatalf("expected only the first valid question, got %+v", got)
	}
}

func TestNormalizeEmptySet(t *testing.T) {
	n := app.NewNormalizer(false, nil, nil)
	if _, err := n.Normalize(nil); !errors.Is(err, domain.ErrEmptyQuestionSet) {
		t.Fatalf("expected ErrEmptyQuestionSet, got %v", err)
	}
	_, err := n.Normalize(raws(`{"id":"x","options":["a","b"]}`))
	if !errors.Is(err, domain.ErrEmptyQuestionSet) {
		t.Fatalf("expected ErrEmptyQuestionSet when all malformed, got %v", err)
	}
}

func TestNormalizePointsFallback(t *testing.T) {
	n := app.NewNormalizer(false, nil, nil)
	got, err := n.Normalize(raws(
		`{"id":"a","text":"t","options":{"A":"1","B":"2"},"correct_answer":"A","difficulty":"zor","points":0}`,
		`{"id":"b","text":"t","options":{"A":"1","B":"2"},"correct_answer":"A","difficulty":"easy","points":"30"}`,
		`{"id":"c","text":"t","options":{"A":"1","B":"2"},"correct_answer":"A","difficulty":"weird","points":2.5}`,
	))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	points := []int{got[0].BasePoints, got[1].BasePoints, got[2].BasePoints}
	if diff := cmp.Diff([]int{50, 10, 20}, points); diff != "" {
		t.Fatalf("points mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDifficulty(t *testing.T) {
	cases := map[string]domain.Difficulty{
		"EASY":   domain.DifficultyEasy,
		"kolay":  domain.DifficultyEasy,
		" orta ": domain.DifficultyMedium,
		"Zor":    domain.DifficultyHard,
		"hard":   domain.DifficultyHard,
		"":       domain.DifficultyMedium,
		"legend": domain.DifficultyMedium,
	}
	for raw, want := range cases {
		if got := app.ParseDifficulty(raw); got != want {
			t.Fatalf("ParseDifficulty(%q) = %s, want %s", raw, got, want)
		}
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}
