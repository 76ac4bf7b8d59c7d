package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"trivia-client/internal/domain"
	"trivia-client/internal/telemetry"
)

// ResultSink receives a round's final tally exactly once.
type ResultSink interface {
	Submit(ctx context.Context, result domain.RoundResult) (domain.SubmitOutcome, error)
}

// ScoreReporter posts a score to the remote leaderboard.
type ScoreReporter interface {
	SubmitScore(ctx context.Context, player string, result domain.RoundResult) (domain.SubmitOutcome, error)
}

// IdentityStore exposes the locally stored display name. The core only reads it.
type IdentityStore interface {
	Identity(ctx context.Context) (string, bool, error)
}

// Outbox keeps results whose submission failed so a later sync can deliver them.
type Outbox interface {
	Enqueue(ctx context.Context, pending domain.PendingResult) error
	Pending(ctx context.Context) ([]domain.PendingResult, error)
	Remove(ctx context.Context, id string) error
}

// Submitter reports results to the leaderboard and degrades to a local outcome on failure.
type Submitter struct {
	reporter ScoreReporter
	identity IdentityStore
	outbox   Outbox
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	now      func() time.Time
}

// NewSubmitter wires a submitter. outbox may be nil, in which case failed submissions are only logged.
func NewSubmitter(reporter ScoreReporter, identity IdentityStore, outbox Outbox, logger *slog.Logger, metrics *telemetry.Metrics) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{
		reporter: reporter,
		identity: identity,
		outbox:   outbox,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Submit reports result. Only a missing identity is returned as an error; transport and service
// failures yield {IsNewRecord: false, BestScore: result.Score} so the player still sees a result.
func (s *Submitter) Submit(ctx context.Context, result domain.RoundResult) (domain.SubmitOutcome, error) {
	player, err := s.player(ctx)
	if err != nil {
		return domain.SubmitOutcome{}, err
	}

	outcome, err := s.reporter.SubmitScore(ctx, player, result)
	if err != nil {
		s.logger.Error("score submission failed, using local result",
			"player", player, "mode", result.Mode, "score", result.Score, "error", err)
		s.metrics.Submission("fallback")
		if permanent(err) {
			s.metrics.Submission("rejected")
		} else {
			s.queue(ctx, player, result)
		}
		return domain.SubmitOutcome{IsNewRecord: false, BestScore: result.Score}, nil
	}

	outcome.Confirmed = true
	s.metrics.Submission("ok")
	return outcome, nil
}

// Flush replays queued results oldest first and stops at the first transient failure. Entries the
// server refuses are dropped. It returns how many entries were delivered.
func (s *Submitter) Flush(ctx context.Context) (int, error) {
	if s.outbox == nil {
		return 0, nil
	}
	pending, err := s.outbox.Pending(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending results: %w", err)
	}

	sent := 0
	for _, p := range pending {
		if _, err := s.reporter.SubmitScore(ctx, p.Player, p.Result); err != nil {
			if !permanent(err) {
				return sent, fmt.Errorf("replay %s: %w", p.ID, err)
			}
			s.logger.Warn("dropping pending result refused by server", "id", p.ID, "player", p.Player, "error", err)
			s.metrics.Submission("dropped")
		} else {
			sent++
			s.metrics.Submission("flushed")
		}
		if err := s.outbox.Remove(ctx, p.ID); err != nil {
			return sent, fmt.Errorf("remove %s: %w", p.ID, err)
		}
	}
	return sent, nil
}

// permanent reports failures that resending the same result cannot fix.
func permanent(err error) bool {
	return errors.Is(err, domain.ErrRejected) || errors.Is(err, domain.ErrNotFound)
}

func (s *Submitter) player(ctx context.Context) (string, error) {
	if s.identity == nil {
		return "", domain.ErrMissingIdentity
	}
	name, ok, err := s.identity.Identity(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMissingIdentity, err)
	}
	if !ok || name == "" {
		return "", domain.ErrMissingIdentity
	}
	return name, nil
}

func (s *Submitter) queue(ctx context.Context, player string, result domain.RoundResult) {
	if s.outbox == nil {
		return
	}
	// Queue with a fresh context so a cancelled round still leaves a record behind.
	qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	pending := domain.PendingResult{
		ID:       uuid.NewString(),
		Player:   player,
		Result:   result,
		QueuedAt: s.now(),
	}
	if err := s.outbox.Enqueue(qctx, pending); err != nil {
		s.logger.Error("queue pending result failed", "player", player, "error", err)
		return
	}
	s.metrics.Submission("queued")
}
