package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSyncCmd replays results whose submission failed earlier.
func NewSyncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Submit results queued while the leaderboard was unreachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer st.Close()

			sent, err := st.submitter.Flush(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "%d result(s) submitted\n", sent)
			return err
		},
	}
}
