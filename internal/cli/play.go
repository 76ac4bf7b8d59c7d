package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"trivia-client/internal/app"
	"trivia-client/internal/domain"
)

// NewPlayCmd runs one round in the terminal.
func NewPlayCmd(opts *rootOptions) *cobra.Command {
	var episodeID int
	cmd := &cobra.Command{
		Use:   "play [episode|mixed]",
		Short: "Play a round in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := domain.ParseMode(args[0])
			if !ok {
				return fmt.Errorf("mode must be episode or mixed, got %q", args[0])
			}
			if mode == domain.ModeEpisode && episodeID <= 0 {
				return errors.New("--episode is required for episode rounds")
			}
			return runPlay(cmd.Context(), opts, mode, episodeID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&episodeID, "episode", 0, "episode id (episode mode)")
	return cmd
}

func runPlay(ctx context.Context, opts *rootOptions, mode domain.Mode, episodeID int, in io.Reader, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := buildRuntime(ctx, opts)
	if err != nil {
		return err
	}
	defer st.Close()

	round, err := st.service.Prepare(ctx, mode, episodeID)
	if err != nil {
		if errors.Is(err, domain.ErrMissingIdentity) {
			return fmt.Errorf("%w: run `trivia identity set NAME` first", err)
		}
		return err
	}
	events, cancel := round.Subscribe()
	defer cancel()

	go readAnswers(in, round)

	played := make(chan error, 1)
	go func() { played <- st.service.Play(ctx, round) }()

	for ev := range events {
		printEvent(out, ev)
	}
	err = <-played
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// readAnswers forwards typed letters to the round; "q" leaves it.
func readAnswers(in io.Reader, round *app.Round) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "q", "quit", "exit":
			round.Exit()
			return
		}
		if err := round.Answer(line); err != nil {
			return
		}
	}
}

func printEvent(out io.Writer, ev domain.Event) {
	switch ev.Kind {
	case domain.EventQuestionStarted:
		q := ev.Question
		fmt.Fprintf(out, "\n[%d/%d] %s (%s, %d pts)  lives: %d  score: %d\n",
			q.Index+1, q.Total, q.Text, q.Difficulty, q.Points, ev.State.Lives, ev.State.Score)
		for _, opt := range q.Options {
			fmt.Fprintf(out, "  %s) %s\n", opt.ID, opt.Text)
		}
	case domain.EventTick:
		if ev.Danger {
			fmt.Fprintf(out, "  %ds left\n", ev.State.TimeRemainingSeconds)
		}
	case domain.EventAnswerOutcome:
		o := ev.Outcome
		switch o.State {
		case domain.AnswerCorrect:
			bonus := ""
			if o.SpeedBonus {
				bonus = " with speed bonus"
			}
			fmt.Fprintf(out, "Correct! +%d%s\n", o.Awarded, bonus)
		case domain.AnswerWrong:
			fmt.Fprintf(out, "Wrong, the answer was %s\n", o.CorrectOptionID)
		case domain.AnswerTimedOut:
			fmt.Fprintf(out, "Time's up, the answer was %s\n", o.CorrectOptionID)
		}
	case domain.EventLivesChanged:
		fmt.Fprintf(out, "Lives left: %d\n", ev.State.Lives)
	case domain.EventRoundEnded:
		r := ev.Result
		fmt.Fprintf(out, "\nRound over (%s): score %d, %d correct, %d speed bonuses, %d answered\n",
			r.Cause, r.Score, r.CorrectCount, r.SpeedBonusCount, r.QuestionsAnswered)
	case domain.EventSubmitted:
		s := ev.Submit
		switch {
		case s.IsNewRecord:
			fmt.Fprintf(out, "New personal best: %d\n", s.BestScore)
		case !s.Confirmed:
			fmt.Fprintf(out, "Leaderboard unreachable, your score was kept locally\n")
		default:
			fmt.Fprintf(out, "Best score: %d\n", s.BestScore)
		}
	case domain.EventAborted:
		fmt.Fprintln(out, "Round abandoned")
	}
}
