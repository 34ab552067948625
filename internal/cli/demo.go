package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slasia/smart-restaurant/internal/agent/model"
)

var demoQueries = []string{
	"Parrilla in Tandil with a good wine list",
	"Vegan friendly restaurants open late",
	"Cheap family restaurant near the lake",
	"Best picada and local cheeses",
}

func newDemoCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a set of sample requests concurrently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			runner, cleanup, err := newRunner(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			ins := make([]model.QueryInput, 0, len(demoQueries))
			for _, q := range demoQueries {
				ins = append(ins, model.QueryInput{Query: q})
			}
			answers, err := runner.InvokeBatch(ctx, ins, concurrency)
			printAnswers(cmd.OutOrStdout(), ins, answers)
			return err
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "Maximum number of runs in flight")
	return cmd
}

// printAnswers writes one block per query. Failed runs have no run id.
func printAnswers(out io.Writer, ins []model.QueryInput, answers []model.Answer) {
	for i, a := range answers {
		fmt.Fprintf(out, "Query %d: %q\n", i+1, ins[i].Query)
		if a.RunID == "" {
			fmt.Fprintln(out, "Run failed")
		} else {
			fmt.Fprintf(out, "Source: %s, found: %t, iterations: %d, cost: $%.6f\n",
				a.Source, a.Found(), a.Iterations, a.Usage.TotalCostUSD)
			fmt.Fprintln(out, a.Text)
		}
		fmt.Fprintln(out, strings.Repeat("-", 40))
	}
}
