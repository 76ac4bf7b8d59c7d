package domain

// AnswerState tracks what happened to the current question.
type AnswerState string

const (
	AnswerUnanswered AnswerState = "unanswered"
	AnswerCorrect    AnswerState = "correct"
	AnswerWrong      AnswerState = "wrong"
	AnswerTimedOut   AnswerState = "timed_out"
)

// RoundStatus is the coarse lifecycle of a round.
type RoundStatus string

const (
	RoundInProgress RoundStatus = "in_progress"
	RoundEnded      RoundStatus = "ended"
)

// EndCause records why a round ended.
type EndCause string

const (
	CauseNone            EndCause = ""
	CauseOutOfLives      EndCause = "out of lives"
	CauseEpisodeComplete EndCause = "episode complete"
	CausePoolExhausted   EndCause = "pool exhausted"
	// CauseAborted ends a round without producing a result.
	CauseAborted EndCause = "aborted"
)

// RoundState is the mutable state of one round. Only the engine writes it; callers get copies.
type RoundState struct {
	CurrentIndex         int         `json:"currentIndex"`
	Lives                int         `json:"lives"`
	Score                int         `json:"score"`
	CorrectCount         int         `json:"correctCount"`
	SpeedBonusCount      int         `json:"speedBonusCount"`
	TimeRemainingSeconds int         `json:"timeRemainingSeconds"`
	AnswerState          AnswerState `json:"answerState"`
	RoundStatus          RoundStatus `json:"roundStatus"`
	Cause                EndCause    `json:"cause,omitempty"`
}

// RoundResult is the immutable final tally of a round.
type RoundResult struct {
	Mode              Mode     `json:"mode"`
	EpisodeID         *int     `json:"episodeId,omitempty"`
	Score             int      `json:"score"`
	CorrectCount      int      `json:"correctCount"`
	SpeedBonusCount   int      `json:"speedBonusCount"`
	QuestionsAnswered int      `json:"questionsAnswered"`
	Cause             EndCause `json:"cause"`
}
