package domain

import "errors"

var (
	// ErrSourceUnavailable is returned when no question endpoint answered.
	ErrSourceUnavailable = errors.New("question source unavailable")
	// ErrEmptyQuestionSet indicates every fetched question was malformed or none were returned.
	ErrEmptyQuestionSet = errors.New("question set is empty")
	// ErrMalformedQuestion marks a single upstream question that cannot be normalized.
	ErrMalformedQuestion = errors.New("malformed question")
	// ErrMissingIdentity is returned when a round or submission is attempted without a display name.
	ErrMissingIdentity = errors.New("player identity missing")
	// ErrInvalidIdentity rejects display names outside the accepted length.
	ErrInvalidIdentity = errors.New("display name must be 2 to 20 characters")
	// ErrRoundNotFound is returned when a round ID is unknown.
	ErrRoundNotFound = errors.New("round not found")
	// ErrRoundEnded is returned when a round is driven after it ended.
	ErrRoundEnded = errors.New("round already ended")
	// ErrEpisodeNotFound indicates the requested episode has no questions upstream.
	ErrEpisodeNotFound = errors.New("episode not found")
	// ErrRejected marks a request the upstream refused; resending it cannot succeed.
	ErrRejected = errors.New("rejected by server")
	// ErrNotFound is the upstream 404.
	ErrNotFound = errors.New("not found")
)
