package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"trivia-client/internal/domain"
	"trivia-client/internal/telemetry"
)

var optionLetters = []string{"A", "B", "C", "D"}

const (
	minOptions = 2
	maxOptions = 4
)

var difficultySynonyms = map[string]domain.Difficulty{
	"easy":         domain.DifficultyEasy,
	"e":            domain.DifficultyEasy,
	"kolay":        domain.DifficultyEasy,
	"simple":       domain.DifficultyEasy,
	"beginner":     domain.DifficultyEasy,
	"medium":       domain.DifficultyMedium,
	"m":            domain.DifficultyMedium,
	"orta":         domain.DifficultyMedium,
	"normal":       domain.DifficultyMedium,
	"moderate":     domain.DifficultyMedium,
	"intermediate": domain.DifficultyMedium,
	"hard":         domain.DifficultyHard,
	"h":            domain.DifficultyHard,
	"zor":          domain.DifficultyHard,
	"difficult":    domain.DifficultyHard,
	"expert":       domain.DifficultyHard,
}

// ParseDifficulty maps an upstream spelling onto a tier; unknown values are medium.
func ParseDifficulty(raw string) domain.Difficulty {
	if d, ok := difficultySynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return d
	}
	return domain.DifficultyMedium
}

// NormalizeOptionID is the comparison form of an option identifier.
func NormalizeOptionID(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// questionShape tags which upstream layout a question arrived in.
type questionShape int

const (
	// shapeExplicitIDs: options carry ids and the question names the correct one.
	shapeExplicitIDs questionShape = iota
	// shapeCorrectFlags: each option carries an is_correct flag.
	shapeCorrectFlags
	// shapeBare: no correctness signal at all.
	shapeBare
)

func (s questionShape) String() string {
	switch s {
	case shapeExplicitIDs:
		return "explicit_ids"
	case shapeCorrectFlags:
		return "correct_flags"
	default:
		return "bare"
	}
}

type upstreamOption struct {
	id      string
	hasID   bool
	text    string
	correct *bool
}

type decodedQuestion struct {
	shape      questionShape
	id         string
	text       string
	options    []upstreamOption
	correct    string
	difficulty string
	points     *int
}

type rawQuestion struct {
	ID            json.RawMessage `json:"id"`
	Text          string          `json:"text"`
	Question      string          `json:"question"`
	Options       json.RawMessage `json:"options"`
	CorrectOption json.RawMessage `json:"correct_option"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
	Difficulty    string          `json:"difficulty"`
	Points        json.RawMessage `json:"points"`
}

type rawOption struct {
	ID        json.RawMessage `json:"id"`
	Text      string          `json:"text"`
	IsCorrect *bool           `json:"is_correct"`
}

// Normalizer turns upstream question payloads into canonical questions.
type Normalizer struct {
	// StrictCorrectness excludes flag-shaped questions with no flagged option instead of defaulting to A.
	StrictCorrectness bool

	logger  *slog.Logger
	metrics *telemetry.Metrics
}

func NewNormalizer(strict bool, logger *slog.Logger, metrics *telemetry.Metrics) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{StrictCorrectness: strict, logger: logger, metrics: metrics}
}

// Normalize converts every raw question, excluding malformed ones. The returned slice is freshly
// allocated; on error nothing is returned.
func (n *Normalizer) Normalize(raws []json.RawMessage) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	for i, raw := range raws {
		q, err := n.NormalizeOne(raw, i)
		if err != nil {
			n.logger.Warn("excluding question", "index", i, "error", err)
			n.metrics.QuestionExcluded()
			continue
		}
		if _, dup := seen[q.ID]; dup {
			n.logger.Warn("excluding duplicate question id", "index", i, "id", q.ID)
			n.metrics.QuestionExcluded()
			continue
		}
		seen[q.ID] = struct{}{}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, domain.ErrEmptyQuestionSet
	}
	return questions, nil
}

// NormalizeOne converts a single upstream question. index names the question when upstream gave no id.
func (n *Normalizer) NormalizeOne(raw json.RawMessage, index int) (domain.Question, error) {
	dq, err := decodeQuestion(raw)
	if err != nil {
		return domain.Question{}, err
	}

	q := domain.Question{
		ID:         dq.id,
		Text:       dq.text,
		Difficulty: ParseDifficulty(dq.difficulty),
	}
	if q.ID == "" {
		q.ID = fmt.Sprintf("q_%d", index)
	}
	if q.Text == "" {
		return domain.Question{}, fmt.Errorf("%w: missing text", domain.ErrMalformedQuestion)
	}
	if len(dq.options) < minOptions || len(dq.options) > maxOptions {
		return domain.Question{}, fmt.Errorf("%w: %d options", domain.ErrMalformedQuestion, len(dq.options))
	}

	switch dq.shape {
	case shapeExplicitIDs:
		q.Options = make([]domain.Option, 0, len(dq.options))
		ids := make(map[string]struct{}, len(dq.options))
		for _, opt := range dq.options {
			id := NormalizeOptionID(opt.id)
			if id == "" {
				return domain.Question{}, fmt.Errorf("%w: empty option id", domain.ErrMalformedQuestion)
			}
			if _, dup := ids[id]; dup {
				return domain.Question{}, fmt.Errorf("%w: duplicate option id %q", domain.ErrMalformedQuestion, id)
			}
			ids[id] = struct{}{}
			q.Options = append(q.Options, domain.Option{ID: id, Text: opt.text})
		}
		q.CorrectOptionID = NormalizeOptionID(dq.correct)
		if _, ok := ids[q.CorrectOptionID]; !ok {
			return domain.Question{}, fmt.Errorf("%w: correct option %q not among options", domain.ErrMalformedQuestion, q.CorrectOptionID)
		}

	case shapeCorrectFlags:
		q.Options = letteredOptions(dq.options)
		flagged := -1
		for i, opt := range dq.options {
			if opt.correct != nil && *opt.correct {
				flagged = i
				break
			}
		}
		if flagged < 0 {
			if n.StrictCorrectness {
				return domain.Question{}, fmt.Errorf("%w: no option flagged correct", domain.ErrMalformedQuestion)
			}
			n.logger.Warn("no option flagged correct, treating A as correct",
				"question_id", q.ID, "shape", dq.shape.String())
			flagged = 0
			q.LowConfidence = true
		}
		q.CorrectOptionID = optionLetters[flagged]

	default:
		q.Options = letteredOptions(dq.options)
		q.CorrectOptionID = optionLetters[0]
		q.LowConfidence = true
		n.logger.Warn("question has no correctness signal, treating A as correct",
			"question_id", q.ID, "shape", dq.shape.String())
	}

	if q.LowConfidence {
		n.metrics.LowConfidenceQuestion()
	}

	q.BasePoints = q.Difficulty.DefaultPoints()
	if dq.points != nil && *dq.points > 0 {
		q.BasePoints = *dq.points
	}
	return q, nil
}

func letteredOptions(opts []upstreamOption) []domain.Option {
	out := make([]domain.Option, len(opts))
	for i, opt := range opts {
		out[i] = domain.Option{ID: optionLetters[i], Text: opt.text}
	}
	return out
}

func decodeQuestion(raw json.RawMessage) (decodedQuestion, error) {
	var rq rawQuestion
	if err := json.Unmarshal(raw, &rq); err != nil {
		return decodedQuestion{}, fmt.Errorf("%w: %v", domain.ErrMalformedQuestion, err)
	}
	options, err := decodeOptions(rq.Options)
	if err != nil {
		return decodedQuestion{}, err
	}

	dq := decodedQuestion{
		id:         scalarString(rq.ID),
		text:       strings.TrimSpace(rq.Text),
		options:    options,
		correct:    scalarString(rq.CorrectOption),
		difficulty: rq.Difficulty,
		points:     scalarInt(rq.Points),
	}
	if dq.correct == "" {
		dq.correct = scalarString(rq.CorrectAnswer)
	}
	if dq.text == "" {
		dq.text = strings.TrimSpace(rq.Question)
	}

	// The first option decides the shape, matching how upstream writes whole batches in one layout.
	switch {
	case len(options) > 0 && options[0].hasID && dq.correct != "":
		dq.shape = shapeExplicitIDs
	case len(options) > 0 && options[0].correct != nil:
		dq.shape = shapeCorrectFlags
	default:
		dq.shape = shapeBare
	}
	return dq, nil
}

// decodeOptions accepts an array of objects, an array of strings, or a letter-keyed object.
func decodeOptions(raw json.RawMessage) ([]upstreamOption, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '{' {
		var keyed map[string]string
		if err := json.Unmarshal(raw, &keyed); err != nil {
			return nil, fmt.Errorf("%w: options: %v", domain.ErrMalformedQuestion, err)
		}
		keys := make([]string, 0, len(keyed))
		for k, text := range keyed {
			if strings.TrimSpace(text) != "" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		out := make([]upstreamOption, 0, len(keys))
		for _, k := range keys {
			out = append(out, upstreamOption{id: k, hasID: true, text: keyed[k]})
		}
		return out, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: options: %v", domain.ErrMalformedQuestion, err)
	}
	out := make([]upstreamOption, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var text string
			if err := json.Unmarshal(item, &text); err != nil {
				return nil, fmt.Errorf("%w: option: %v", domain.ErrMalformedQuestion, err)
			}
			out = append(out, upstreamOption{text: text})
			continue
		}
		var ro rawOption
		if err := json.Unmarshal(item, &ro); err != nil {
			return nil, fmt.Errorf("%w: option: %v", domain.ErrMalformedQuestion, err)
		}
		id := scalarString(ro.ID)
		out = append(out, upstreamOption{
			id:      id,
			hasID:   len(ro.ID) > 0 && !bytes.Equal(ro.ID, []byte("null")),
			text:    ro.Text,
			correct: ro.IsCorrect,
		})
	}
	return out, nil
}

// scalarString reads a JSON string or number as text.
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}
	return ""
}

// scalarInt reads a whole JSON number as an int. Strings and fractions are ignored.
func scalarInt(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || raw[0] == '"' {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return nil
	}
	v := int(f)
	return &v
}
