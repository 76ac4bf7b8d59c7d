package cli

import (
	"fmt"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"trivia-client/internal/domain"
)

// NewEpisodesCmd lists the episode catalogue.
func NewEpisodesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "episodes",
		Short: "List episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer st.Close()

			episodes, err := st.client.Episodes(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tQUESTIONS\t")
			for _, ep := range episodes {
				name := ep.Name
				if ep.IsLocked {
					name += " (locked)"
				}
				fmt.Fprintf(w, "%d\t%s\t%d\t\n", ep.ID, name, ep.QuestionCount)
			}
			return w.Flush()
		},
	}
}

// NewLeaderboardCmd prints a ranked board.
func NewLeaderboardCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard [general|mixed|EPISODE_ID]",
		Short: "Show a leaderboard",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope := domain.LeaderboardScope{Kind: "general"}
			if len(args) == 1 {
				switch args[0] {
				case "general", "mixed":
					scope.Kind = args[0]
				default:
					id, err := strconv.Atoi(args[0])
					if err != nil {
						return fmt.Errorf("unknown leaderboard %q", args[0])
					}
					scope = domain.LeaderboardScope{Kind: "episode", EpisodeID: id}
				}
			}

			st, err := buildRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer st.Close()

			player, _, err := st.settings.Identity(cmd.Context())
			if err != nil {
				return err
			}
			board, err := st.client.Leaderboard(cmd.Context(), scope, player)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tPLAYER\tSCORE\t")
			for _, e := range board.Entries {
				fmt.Fprintf(w, "%d\t%s\t%d\t\n", e.Rank, e.PlayerName, e.Score)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if board.PlayerRank != nil && board.PlayerScore != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\nYou (%s): #%d of %d with %d\n", player, *board.PlayerRank, board.TotalPlayers, *board.PlayerScore)
			}
			return nil
		},
	}
}

// NewStatsCmd prints the player's best scores.
func NewStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [NAME]",
		Short: "Show best scores for a player (defaults to you)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer st.Close()

			player := ""
			if len(args) == 1 {
				player = args[0]
			} else {
				name, ok, err := st.settings.Identity(cmd.Context())
				if err != nil {
					return err
				}
				if !ok {
					return domain.ErrMissingIdentity
				}
				player = name
			}

			stats, err := st.client.PlayerStats(cmd.Context(), player)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n  total: %d\n  episodes completed: %d\n  mixed best: %d\n",
				stats.PlayerName, stats.GlobalScore, stats.EpisodesCompleted, stats.MixedBestScore)
			ids := make([]string, 0, len(stats.EpisodeScores))
			for id := range stats.EpisodeScores {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(out, "  episode %s: %d\n", id, stats.EpisodeScores[id])
			}
			return nil
		},
	}
}
