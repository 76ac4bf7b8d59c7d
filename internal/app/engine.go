package app

import (
	"fmt"
	"time"

	"trivia-client/internal/domain"
)

// Game balance constants. These are scoring inputs and are not configurable.
const (
	QuestionSeconds    = 20
	SpeedBonusWindow   = 5 * time.Second
	SpeedBonusPoints   = 5
	StartingLives      = 3
	EpisodeQuestionCap = 25

	dangerSeconds = 5
)

// Engine is the round state machine. It never blocks and is not safe for concurrent use;
// a Round serializes every call onto one goroutine.
type Engine struct {
	set   domain.QuestionSet
	limit int
	now   func() time.Time

	started       bool
	state         domain.RoundState
	questionStart time.Time
	result        *domain.RoundResult
}

// NewEngine builds an engine over an already-normalized question set.
func NewEngine(set domain.QuestionSet) (*Engine, error) {
	return NewEngineWithClock(set, time.Now)
}

// NewEngineWithClock allows deterministic elapsed times in tests.
func NewEngineWithClock(set domain.QuestionSet, now func() time.Time) (*Engine, error) {
	if len(set.Questions) == 0 {
		return nil, domain.ErrEmptyQuestionSet
	}
	for i := range set.Questions {
		if !resolvable(set.Questions[i]) {
			return nil, fmt.Errorf("question %q: %w", set.Questions[i].ID, domain.ErrMalformedQuestion)
		}
	}
	limit := len(set.Questions)
	if set.Mode == domain.ModeEpisode && limit > EpisodeQuestionCap {
		limit = EpisodeQuestionCap
	}
	return &Engine{set: set, limit: limit, now: now}, nil
}

// Start arms the first question. Calling it twice is a no-op.
func (e *Engine) Start() []domain.Event {
	if e.started {
		return nil
	}
	e.started = true
	e.state = domain.RoundState{
		Lives:       StartingLives,
		AnswerState: domain.AnswerUnanswered,
		RoundStatus: domain.RoundInProgress,
	}
	return []domain.Event{e.armQuestion()}
}

// Tick consumes one elapsed second of the question timer.
func (e *Engine) Tick() []domain.Event {
	if !e.accepting() {
		return nil
	}
	e.state.TimeRemainingSeconds--
	if e.state.TimeRemainingSeconds > 0 {
		return []domain.Event{{
			Kind:   domain.EventTick,
			State:  e.state,
			Danger: e.state.TimeRemainingSeconds <= dangerSeconds,
		}}
	}

	e.state.TimeRemainingSeconds = 0
	e.state.AnswerState = domain.AnswerTimedOut
	q := e.set.Questions[e.state.CurrentIndex]
	events := []domain.Event{
		{Kind: domain.EventTick, State: e.state, Danger: true},
		{Kind: domain.EventAnswerOutcome, State: e.state, Outcome: &domain.AnswerOutcome{
			QuestionID:      q.ID,
			CorrectOptionID: q.CorrectOptionID,
			State:           domain.AnswerTimedOut,
			ElapsedMillis:   e.elapsed().Milliseconds(),
		}},
	}
	return append(events, e.loseLife()...)
}

// SubmitAnswer scores an option for the current question. Duplicate or late submissions are ignored.
func (e *Engine) SubmitAnswer(optionID string) []domain.Event {
	if !e.accepting() {
		return nil
	}
	elapsed := e.elapsed()
	q := e.set.Questions[e.state.CurrentIndex]
	selected := NormalizeOptionID(optionID)
	outcome := &domain.AnswerOutcome{
		QuestionID:      q.ID,
		SelectedID:      selected,
		CorrectOptionID: q.CorrectOptionID,
		ElapsedMillis:   elapsed.Milliseconds(),
	}

	if selected != q.CorrectOptionID {
		e.state.AnswerState = domain.AnswerWrong
		outcome.State = domain.AnswerWrong
		events := []domain.Event{{Kind: domain.EventAnswerOutcome, State: e.state, Outcome: outcome}}
		return append(events, e.loseLife()...)
	}

	points := q.BasePoints
	e.state.AnswerState = domain.AnswerCorrect
	e.state.CorrectCount++
	if elapsed <= SpeedBonusWindow {
		points += SpeedBonusPoints
		e.state.SpeedBonusCount++
		outcome.SpeedBonus = true
	}
	e.state.Score += points
	outcome.State = domain.AnswerCorrect
	outcome.Awarded = points
	return []domain.Event{{Kind: domain.EventAnswerOutcome, State: e.state, Outcome: outcome}}
}

// Advance moves past a resolved question, ending the round when the sequence is exhausted.
// It is ignored while the current question is still unanswered.
func (e *Engine) Advance() []domain.Event {
	if !e.AwaitingAdvance() {
		return nil
	}
	next := e.state.CurrentIndex + 1
	if next >= e.limit {
		cause := domain.CausePoolExhausted
		if e.set.Mode == domain.ModeEpisode {
			cause = domain.CauseEpisodeComplete
		}
		return []domain.Event{e.end(cause)}
	}
	e.state.CurrentIndex = next
	return []domain.Event{e.armQuestion()}
}

// Abort ends the round without producing a result.
func (e *Engine) Abort() []domain.Event {
	if e.state.RoundStatus == domain.RoundEnded {
		return nil
	}
	e.started = true
	e.state.RoundStatus = domain.RoundEnded
	e.state.Cause = domain.CauseAborted
	return []domain.Event{{Kind: domain.EventAborted, State: e.state}}
}

// AwaitingAdvance reports whether the current question is resolved and the round still running.
func (e *Engine) AwaitingAdvance() bool {
	return e.started &&
		e.state.RoundStatus == domain.RoundInProgress &&
		e.state.AnswerState != domain.AnswerUnanswered
}

// State returns a copy of the current round state.
func (e *Engine) State() domain.RoundState {
	return e.state
}

// Ended reports whether the round reached a terminal state, including an abort.
func (e *Engine) Ended() bool {
	return e.state.RoundStatus == domain.RoundEnded
}

// Result returns the final tally once the round ended normally.
func (e *Engine) Result() (domain.RoundResult, bool) {
	if e.result == nil {
		return domain.RoundResult{}, false
	}
	return *e.result, true
}

// Current returns the question at the current index.
func (e *Engine) Current() (domain.Question, bool) {
	if !e.started || e.Ended() {
		return domain.Question{}, false
	}
	return e.set.Questions[e.state.CurrentIndex], true
}

// Limit is the number of questions the round can present.
func (e *Engine) Limit() int {
	return e.limit
}

func (e *Engine) accepting() bool {
	return e.started &&
		e.state.RoundStatus == domain.RoundInProgress &&
		e.state.AnswerState == domain.AnswerUnanswered
}

func (e *Engine) armQuestion() domain.Event {
	e.state.AnswerState = domain.AnswerUnanswered
	e.state.TimeRemainingSeconds = QuestionSeconds
	e.questionStart = e.now()

	q := e.set.Questions[e.state.CurrentIndex]
	options := make([]domain.Option, len(q.Options))
	copy(options, q.Options)
	return domain.Event{
		Kind:  domain.EventQuestionStarted,
		State: e.state,
		Question: &domain.QuestionView{
			ID:         q.ID,
			Text:       q.Text,
			Options:    options,
			Difficulty: q.Difficulty,
			Points:     q.BasePoints,
			Index:      e.state.CurrentIndex,
			Total:      e.limit,
		},
	}
}

func (e *Engine) loseLife() []domain.Event {
	if e.state.Lives > 0 {
		e.state.Lives--
	}
	events := []domain.Event{{Kind: domain.EventLivesChanged, State: e.state}}
	if e.state.Lives == 0 {
		events = append(events, e.end(domain.CauseOutOfLives))
	}
	return events
}

func (e *Engine) end(cause domain.EndCause) domain.Event {
	e.state.RoundStatus = domain.RoundEnded
	e.state.Cause = cause

	result := domain.RoundResult{
		Mode:              e.set.Mode,
		Score:             e.state.Score,
		CorrectCount:      e.state.CorrectCount,
		SpeedBonusCount:   e.state.SpeedBonusCount,
		QuestionsAnswered: e.state.CurrentIndex + 1,
		Cause:             cause,
	}
	if e.set.EpisodeID != nil {
		id := *e.set.EpisodeID
		result.EpisodeID = &id
	}
	e.result = &result

	snapshot := result
	return domain.Event{Kind: domain.EventRoundEnded, State: e.state, Result: &snapshot}
}

func (e *Engine) elapsed() time.Duration {
	return e.now().Sub(e.questionStart)
}

func resolvable(q domain.Question) bool {
	for _, opt := range q.Options {
		if opt.ID == q.CorrectOptionID {
			return true
		}
	}
	return false
}
