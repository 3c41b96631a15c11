package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datallboy/comexdown/internal/app"
	"github.com/datallboy/comexdown/internal/engine"
)

func newTradeCmd(g *globalOptions) *cobra.Command {
	var opts engine.TradeOptions
	var rebuildIndex bool

	cmd := &cobra.Command{
		Use:   "trade <year|from:to|complete>...",
		Short: "Download export and import records",
		Example: `  comexdown trade 2020
  comexdown trade 2018:2020 --exp
  comexdown trade 2020 --mun
  comexdown trade complete --imp`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := engine.PlanTrade(args, opts)
			if err != nil {
				return err
			}

			a, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return runPlan(cmd, a, plan, rebuildIndex)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.Export, "exp", false, "exports only")
	f.BoolVar(&opts.Import, "imp", false, "imports only")
	f.BoolVar(&opts.Mun, "mun", false, "municipality-level data (1997 onward)")
	f.BoolVar(&rebuildIndex, "index", false, "rebuild index.json after the downloads")

	return cmd
}

// runPlan executes a batch, prints the summary and optionally reindexes.
func runPlan(cmd *cobra.Command, a *app.Context, plan engine.Plan, rebuildIndex bool) error {
	sum := a.Engine.Run(cmd.Context(), plan)
	fmt.Fprintln(cmd.OutOrStdout(), sum)

	if err := cmd.Context().Err(); err != nil {
		return err
	}

	if rebuildIndex {
		idx, err := a.Index.Rebuild(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d files in %s\n", len(idx.Files()), a.Index.ManifestPath())
	}

	if sum.AllFailed() {
		return errBatchFailed
	}
	return nil
}
