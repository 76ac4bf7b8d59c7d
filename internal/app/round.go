package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"trivia-client/internal/domain"
	"trivia-client/internal/telemetry"
)

// DefaultDisplayDelay is how long answer feedback stays on screen before the next question.
const DefaultDisplayDelay = 1500 * time.Millisecond

// Ticker is the part of time.Ticker a round consumes.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TimerSource drives the per-question timer and the display delay.
type TimerSource interface {
	NewTicker(d time.Duration) Ticker
	After(d time.Duration) <-chan time.Time
}

// SystemTimers is the wall-clock TimerSource.
type SystemTimers struct{}

func (SystemTimers) NewTicker(d time.Duration) Ticker { return systemTicker{time.NewTicker(d)} }

func (SystemTimers) After(d time.Duration) <-chan time.Time { return time.After(d) }

type systemTicker struct{ t *time.Ticker }

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

// RoundOptions tunes how a round is hosted.
type RoundOptions struct {
	Timers       TimerSource
	DisplayDelay time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
	Metrics      *telemetry.Metrics
}

// Round hosts one Engine on a single goroutine. Ticks, answers, advances and exit requests are
// processed one at a time in arrival order.
type Round struct {
	id      string
	set     domain.QuestionSet
	engine  *Engine
	sink    ResultSink
	timers  TimerSource
	delay   time.Duration
	logger  *slog.Logger
	metrics *telemetry.Metrics

	answers  chan string
	exit     chan struct{}
	exitOnce sync.Once
	ended    chan struct{}
	runOnce  sync.Once
	done     chan struct{}

	mu          sync.RWMutex
	state       domain.RoundState
	result      *domain.RoundResult
	submitted   *domain.SubmitOutcome
	subscribers map[chan domain.Event]struct{}
	closed      bool
}

// NewRound builds an unstarted round. Call Subscribe before Run to observe the first question.
func NewRound(id string, set domain.QuestionSet, sink ResultSink, opts RoundOptions) (*Round, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	engine, err := NewEngineWithClock(set, now)
	if err != nil {
		return nil, err
	}
	timers := opts.Timers
	if timers == nil {
		timers = SystemTimers{}
	}
	delay := opts.DisplayDelay
	if delay <= 0 {
		delay = DefaultDisplayDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Round{
		id:          id,
		set:         set,
		engine:      engine,
		sink:        sink,
		timers:      timers,
		delay:       delay,
		logger:      logger.With("round_id", id),
		metrics:     opts.Metrics,
		answers:     make(chan string),
		exit:        make(chan struct{}),
		ended:       make(chan struct{}),
		done:        make(chan struct{}),
		subscribers: make(map[chan domain.Event]struct{}),
	}, nil
}

func (r *Round) ID() string { return r.id }

// Mode reports which kind of round this is.
func (r *Round) Mode() domain.Mode { return r.set.Mode }

// Run hosts the round until it ends, is exited, or ctx is cancelled. A normally ended round has its
// result handed to the sink exactly once before Run returns. Run may only be called once.
func (r *Round) Run(ctx context.Context) error {
	err := domain.ErrRoundEnded
	r.runOnce.Do(func() {
		err = r.run(ctx)
	})
	return err
}

func (r *Round) run(ctx context.Context) error {
	defer close(r.done)
	defer r.closeSubscribers()
	markEnded := sync.OnceFunc(func() { close(r.ended) })
	defer markEnded()

	var ticker Ticker
	var tickC, advanceC <-chan time.Time
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
		}
		tickC = nil
	}
	defer stopTicker()

	handle := func(events []domain.Event) {
		for _, ev := range events {
			switch ev.Kind {
			case domain.EventQuestionStarted:
				stopTicker()
				ticker = r.timers.NewTicker(time.Second)
				tickC = ticker.C()
			case domain.EventAnswerOutcome:
				stopTicker()
				r.metrics.Answer(string(ev.Outcome.State))
			case domain.EventRoundEnded, domain.EventAborted:
				stopTicker()
			}
			r.publish(ev)
		}
		if advanceC == nil && r.engine.AwaitingAdvance() {
			advanceC = r.timers.After(r.delay)
		}
	}

	r.metrics.RoundStarted(string(r.set.Mode))
	r.logger.Info("round started", "mode", r.set.Mode, "questions", r.engine.Limit())
	handle(r.engine.Start())

	exited := func() error {
		markEnded()
		handle(r.engine.Abort())
		r.logger.Info("round exited by player")
		return nil
	}

	for !r.engine.Ended() {
		var step func() []domain.Event
		select {
		case <-ctx.Done():
			markEnded()
			handle(r.engine.Abort())
			r.logger.Info("round cancelled")
			return ctx.Err()
		case <-r.exit:
			return exited()
		case <-tickC:
			step = r.engine.Tick
		case optionID := <-r.answers:
			step = func() []domain.Event { return r.engine.SubmitAnswer(optionID) }
		case <-advanceC:
			advanceC = nil
			step = r.engine.Advance
		}
		// An exit that became ready alongside a tick, answer or advance wins.
		select {
		case <-r.exit:
			return exited()
		default:
		}
		handle(step())
	}

	markEnded()

	result, ok := r.engine.Result()
	if !ok {
		return nil
	}
	r.metrics.RoundEnded(string(result.Mode), string(result.Cause))
	r.logger.Info("round ended", "cause", result.Cause, "score", result.Score,
		"correct", result.CorrectCount, "answered", result.QuestionsAnswered)

	outcome, err := r.sink.Submit(ctx, result)
	if err != nil {
		r.logger.Error("result not submitted", "error", err)
		return err
	}
	r.mu.Lock()
	r.submitted = &outcome
	r.mu.Unlock()
	r.publish(domain.Event{Kind: domain.EventSubmitted, State: r.engine.State(), Result: &result, Submit: &outcome})
	return nil
}

// Answer submits an option for the current question. Late or duplicate answers are ignored by the
// engine; ErrRoundEnded is returned as soon as the round is over, without waiting for submission.
func (r *Round) Answer(optionID string) error {
	select {
	case <-r.ended:
		return domain.ErrRoundEnded
	default:
	}
	select {
	case r.answers <- optionID:
		return nil
	case <-r.ended:
		return domain.ErrRoundEnded
	case <-r.done:
		return domain.ErrRoundEnded
	}
}

// Exit aborts the round: the timer stops and no result is produced or submitted.
func (r *Round) Exit() {
	r.exitOnce.Do(func() { close(r.exit) })
}

// Done is closed when Run returns.
func (r *Round) Done() <-chan struct{} { return r.done }

// State returns the latest published state snapshot.
func (r *Round) State() domain.RoundState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Result returns the final tally and the submission outcome once available.
func (r *Round) Result() (domain.RoundResult, *domain.SubmitOutcome, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.result == nil {
		return domain.RoundResult{}, nil, false
	}
	return *r.result, r.submitted, true
}

// Subscribe returns a channel of round events, closed when the round finishes.
// The caller must invoke the returned cancel function to avoid leaks.
func (r *Round) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 64)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	r.subscribers[ch] = struct{}{}
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

func (r *Round) publish(ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = ev.State
	if ev.Result != nil && r.result == nil {
		res := *ev.Result
		r.result = &res
	}
	for ch := range r.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow subscribers lose their oldest event rather than stall the round.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (r *Round) closeSubscribers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for ch := range r.subscribers {
		delete(r.subscribers, ch)
		close(ch)
	}
}
