package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"trivia-client/internal/domain"
)

// RoundRepository tracks rounds that are currently being played (in-memory, Redis, etc).
type RoundRepository interface {
	Put(round *Round)
	Get(roundID string) (*Round, bool)
	Delete(roundID string)
}

// RoundService contains the round use cases: start gated on identity, play, answer, exit.
type RoundService struct {
	rounds       RoundRepository
	source       QuestionSource
	sink         ResultSink
	identity     IdentityStore
	opts         RoundOptions
	episodeCount int
}

func NewRoundService(rounds RoundRepository, source QuestionSource, sink ResultSink, identity IdentityStore, opts RoundOptions, episodeCount int) *RoundService {
	if episodeCount <= 0 {
		episodeCount = EpisodeQuestionCap
	}
	return &RoundService{
		rounds:       rounds,
		source:       source,
		sink:         sink,
		identity:     identity,
		opts:         opts,
		episodeCount: episodeCount,
	}
}

// Prepare fetches questions and registers a new round without starting its timer.
func (s *RoundService) Prepare(ctx context.Context, mode domain.Mode, episodeID int) (*Round, error) {
	if err := s.requireIdentity(ctx); err != nil {
		return nil, err
	}

	var (
		set domain.QuestionSet
		err error
	)
	switch mode {
	case domain.ModeEpisode:
		set, err = s.source.FetchEpisodeQuestions(ctx, episodeID, s.episodeCount)
	case domain.ModeMixed:
		set, err = s.source.FetchMixedQuestions(ctx)
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	round, err := NewRound(uuid.NewString(), set, s.sink, s.opts)
	if err != nil {
		return nil, err
	}
	s.rounds.Put(round)
	return round, nil
}

// Play hosts a prepared round until it finishes and then forgets it.
func (s *RoundService) Play(ctx context.Context, round *Round) error {
	defer s.rounds.Delete(round.ID())
	return round.Run(ctx)
}

// Answer forwards an option to a live round.
func (s *RoundService) Answer(_ context.Context, roundID, optionID string) error {
	round, ok := s.rounds.Get(roundID)
	if !ok {
		return domain.ErrRoundNotFound
	}
	return round.Answer(optionID)
}

// Exit aborts a live round. Unknown rounds are ignored.
func (s *RoundService) Exit(_ context.Context, roundID string) {
	round, ok := s.rounds.Get(roundID)
	if !ok {
		return
	}
	round.Exit()
}

// Subscribe returns the event stream of a live round.
func (s *RoundService) Subscribe(_ context.Context, roundID string) (<-chan domain.Event, func(), error) {
	round, ok := s.rounds.Get(roundID)
	if !ok {
		return nil, nil, domain.ErrRoundNotFound
	}
	ch, cancel := round.Subscribe()
	return ch, cancel, nil
}

func (s *RoundService) requireIdentity(ctx context.Context) error {
	if s.identity == nil {
		return domain.ErrMissingIdentity
	}
	name, ok, err := s.identity.Identity(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMissingIdentity, err)
	}
	if !ok || name == "" {
		return domain.ErrMissingIdentity
	}
	return nil
}
