package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slasia/smart-restaurant/internal/agent/graph/conversations"
	"github.com/slasia/smart-restaurant/internal/agent/model"
)

func newAskCmd() *cobra.Command {
	var (
		asJSON     bool
		transcript int
	)
	cmd := &cobra.Command{
		Use:   "ask <preferences...>",
		Short: "Recommend restaurants for one request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, cleanup, err := newRunner(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			state, err := runner.Run(ctx, model.QueryInput{Query: strings.Join(args, " ")})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if transcript != 0 {
				fmt.Fprintln(out, conversations.Render(state.History, transcript))
				fmt.Fprintln(out, strings.Repeat("-", 40))
			}
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(state.ToAnswer())
			}
			fmt.Fprintln(out, state.FinalAnswer)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the answer with its run metadata as JSON")
	cmd.Flags().IntVar(&transcript, "transcript", 0, "Print the last N turns of the run history first (-1 for all)")
	return cmd
}
