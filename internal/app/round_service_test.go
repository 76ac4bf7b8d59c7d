package app_test

import (
	"context"
	"errors"
	"testing"

	"trivia-client/internal/app"
	"trivia-client/internal/domain"
	"trivia-client/internal/infra/memory"
)

type countingSource struct {
	set          domain.QuestionSet
	err          error
	calls        int
	episodeCount int
}

func (s *countingSource) FetchEpisodeQuestions(_ context.Context, episodeID, count int) (domain.QuestionSet, error) {
	s.calls++
	s.episodeCount = count
	if s.err != nil {
		return domain.QuestionSet{}, s.err
	}
	set := s.set
	set.Mode = domain.ModeEpisode
	set.EpisodeID = &episodeID
	return set, nil
}

func (s *countingSource) FetchMixedQuestions(_ context.Context) (domain.QuestionSet, error) {
	s.calls++
	if s.err != nil {
		return domain.QuestionSet{}, s.err
	}
	return s.set, nil
}

func TestPrepareRequiresIdentity(t *testing.T) {
	source := &countingSource{set: mixedSet(3, 10)}
	service := app.NewRoundService(memory.NewRoundStore(), source, &recordingSink{}, memory.StaticIdentity{}, app.RoundOptions{}, 0)

	if _, err := service.Prepare(context.Background(), domain.ModeMixed, 0); !errors.Is(err, domain.ErrMissingIdentity) {
		t.Fatalf("expected ErrMissingIdentity, got %v", err)
	}
	if source.calls != 0 {
		t.Fatalf("questions must not be fetched without identity")
	}
}

func TestPrepareAndPlayLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRoundStore()
	source := &countingSource{set: mixedSet(3, 10)}
	timers := newFakeTimers()
	service := app.NewRoundService(store, source, &recordingSink{}, memory.StaticIdentity{Name: "Ada"},
		app.RoundOptions{Timers: timers}, 0)

	round, err := service.Prepare(ctx, domain.ModeEpisode, 8)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if source.episodeCount != app.EpisodeQuestionCap {
		t.Fatalf("expected default episode count %d, got %d", app.EpisodeQuestionCap, source.episodeCount)
	}
	if round.Mode() != domain.ModeEpisode || store.Len() != 1 {
		t.Fatalf("expected registered episode round, mode=%s live=%d", round.Mode(), store.Len())
	}

	events, cancel, err := service.Subscribe(ctx, round.ID())
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	played := make(chan error, 1)
	go func() { played <- service.Play(ctx, round) }()
	expectEvent(t, events, domain.EventQuestionStarted)

	if err := service.Answer(ctx, round.ID(), "C"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	expectEvent(t, events, domain.EventAnswerOutcome)

	service.Exit(ctx, round.ID())
	if err := <-played; err != nil {
		t.Fatalf("play: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("finished round must be unregistered")
	}
	if err := service.Answer(ctx, round.ID(), "A"); !errors.Is(err, domain.ErrRoundNotFound) {
		t.Fatalf("expected ErrRoundNotFound, got %v", err)
	}
	if _, _, err := service.Subscribe(ctx, round.ID()); !errors.Is(err, domain.ErrRoundNotFound) {
		t.Fatalf("expected ErrRoundNotFound, got %v", err)
	}
	service.Exit(ctx, "unknown")
}

func TestPrepareSurfacesSourceErrors(t *testing.T) {
	source := &countingSource{err: domain.ErrSourceUnavailable}
	service := app.NewRoundService(memory.NewRoundStore(), source, &recordingSink{}, memory.StaticIdentity{Name: "Ada"}, app.RoundOptions{}, 10)

	if _, err := service.Prepare(context.Background(), domain.ModeMixed, 0); !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if _, err := service.Prepare(context.Background(), domain.Mode("marathon"), 0); err == nil {
		t.Fatalf("expected unknown mode to fail")
	}
}
