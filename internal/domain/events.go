package domain

// EventKind names a UI-facing round event.
type EventKind string

const (
	EventQuestionStarted EventKind = "question_started"
	EventTick            EventKind = "tick"
	EventAnswerOutcome   EventKind = "answer_outcome"
	EventLivesChanged    EventKind = "lives_changed"
	EventRoundEnded      EventKind = "round_ended"
	EventSubmitted       EventKind = "submitted"
	EventAborted         EventKind = "aborted"
)

// QuestionView is a question without its answer, safe to hand to presentation code.
type QuestionView struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Options    []Option   `json:"options"`
	Difficulty Difficulty `json:"difficulty"`
	Points     int        `json:"points"`
	Index      int        `json:"index"`
	Total      int        `json:"total"`
}

// AnswerOutcome describes how a question was resolved.
type AnswerOutcome struct {
	QuestionID      string      `json:"questionId"`
	SelectedID      string      `json:"selectedId,omitempty"`
	CorrectOptionID string      `json:"correctOptionId"`
	State           AnswerState `json:"state"`
	Awarded         int         `json:"awarded"`
	SpeedBonus      bool        `json:"speedBonus"`
	ElapsedMillis   int64       `json:"elapsedMs"`
}

// Event is emitted by a round after each transition. State is a snapshot taken after the transition.
type Event struct {
	Kind     EventKind      `json:"kind"`
	State    RoundState     `json:"state"`
	Question *QuestionView  `json:"question,omitempty"`
	Outcome  *AnswerOutcome `json:"outcome,omitempty"`
	Result   *RoundResult   `json:"result,omitempty"`
	Submit   *SubmitOutcome `json:"submit,omitempty"`
	// Danger is set on ticks in the closing seconds of a question. Cosmetic only.
	Danger bool `json:"danger,omitempty"`
}
