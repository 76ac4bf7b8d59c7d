package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"golang.org/x/sync/errgroup"
	"trivia-client/internal/domain"
)

const assemblyFanout = 4

// QuestionFeed returns raw upstream payloads (HTTP client, optionally behind a cache).
type QuestionFeed interface {
	EpisodeQuiz(ctx context.Context, episodeID, count int) (domain.UpstreamQuiz, error)
	MixedQuiz(ctx context.Context) (domain.UpstreamQuiz, error)
	Episodes(ctx context.Context) ([]domain.Episode, error)
}

// QuestionSource yields normalized question sets for a round.
type QuestionSource interface {
	FetchEpisodeQuestions(ctx context.Context, episodeID, count int) (domain.QuestionSet, error)
	FetchMixedQuestions(ctx context.Context) (domain.QuestionSet, error)
}

// SourceAdapter fetches upstream payloads and normalizes them once, at ingestion.
type SourceAdapter struct {
	feed       QuestionFeed
	normalizer *Normalizer
	shuffle    func(n int, swap func(i, j int))
	logger     *slog.Logger
}

func NewSourceAdapter(feed QuestionFeed, normalizer *Normalizer, logger *slog.Logger) *SourceAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	if normalizer == nil {
		normalizer = NewNormalizer(false, logger, nil)
	}
	return &SourceAdapter{
		feed:       feed,
		normalizer: normalizer,
		shuffle:    rand.Shuffle,
		logger:     logger,
	}
}

// NewSourceAdapterWithShuffle is test-only for deterministic permutations.
func NewSourceAdapterWithShuffle(feed QuestionFeed, normalizer *Normalizer, shuffle func(n int, swap func(i, j int))) *SourceAdapter {
	a := NewSourceAdapter(feed, normalizer, nil)
	a.shuffle = shuffle
	return a
}

// FetchEpisodeQuestions loads one episode's batch.
func (a *SourceAdapter) FetchEpisodeQuestions(ctx context.Context, episodeID, count int) (domain.QuestionSet, error) {
	quiz, err := a.feed.EpisodeQuiz(ctx, episodeID, count)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.QuestionSet{}, fmt.Errorf("episode %d: %w", episodeID, domain.ErrEpisodeNotFound)
		}
		return domain.QuestionSet{}, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	questions, err := a.normalizer.Normalize(quiz.Questions)
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("episode %d: %w", episodeID, err)
	}

	id := episodeID
	name := quiz.EpisodeName
	if name == "" {
		name = fmt.Sprintf("Episode %d", episodeID)
	}
	return domain.QuestionSet{
		Mode:      domain.ModeEpisode,
		EpisodeID: &id,
		Name:      name,
		Questions: questions,
	}, nil
}

// FetchMixedQuestions loads the endless pool, assembling it from the catalogue when upstream has no
// dedicated endpoint, and returns it uniformly shuffled.
func (a *SourceAdapter) FetchMixedQuestions(ctx context.Context) (domain.QuestionSet, error) {
	quiz, err := a.feed.MixedQuiz(ctx)
	var raws []json.RawMessage
	switch {
	case err == nil:
		raws = quiz.Questions
	case errors.Is(err, domain.ErrNotFound):
		a.logger.Info("no mixed endpoint, assembling pool from episodes")
		raws, err = a.assembleMixed(ctx)
		if err != nil {
			return domain.QuestionSet{}, err
		}
	default:
		return domain.QuestionSet{}, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	questions, err := a.normalizer.Normalize(raws)
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("mixed: %w", err)
	}
	a.shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	return domain.QuestionSet{
		Mode:      domain.ModeMixed,
		Name:      "Mixed",
		Questions: questions,
	}, nil
}

func (a *SourceAdapter) assembleMixed(ctx context.Context) ([]json.RawMessage, error) {
	episodes, err := a.feed.Episodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: catalogue: %v", domain.ErrSourceUnavailable, err)
	}

	batches := make([][]json.RawMessage, len(episodes))
	var g errgroup.Group
	g.SetLimit(assemblyFanout)
	for i, ep := range episodes {
		i, ep := i, ep
		if ep.IsLocked {
			continue
		}
		count := ep.QuestionCount
		if count < EpisodeQuestionCap {
			count = EpisodeQuestionCap
		}
		g.Go(func() error {
			quiz, err := a.feed.EpisodeQuiz(ctx, ep.ID, count)
			if err != nil {
				a.logger.Warn("skipping episode in mixed pool", "episode_id", ep.ID, "error", err)
				return nil
			}
			batches[i] = quiz.Questions
			return nil
		})
	}
	_ = g.Wait()

	var raws []json.RawMessage
	fetched := 0
	for _, batch := range batches {
		if batch == nil {
			continue
		}
		fetched++
		raws = append(raws, batch...)
	}
	if fetched == 0 {
		return nil, fmt.Errorf("%w: no episode could be fetched", domain.ErrSourceUnavailable)
	}
	return raws, nil
}
