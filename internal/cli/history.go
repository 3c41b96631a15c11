package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/datallboy/comexdown/internal/store"
)

func newHistoryCmd(g *globalOptions) *cobra.Command {
	var f store.Filter

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent transfer outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.History.ListTransfers(cmd.Context(), f)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FINISHED\tRUN\tREQUEST\tSTATUS\tSIZE\tATTEMPTS\tERROR")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					humanize.Time(r.FinishedAt), r.RunID, r.Request, r.Status,
					humanize.IBytes(uint64(r.Bytes)), r.Attempts, r.Error)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&f.Limit, "limit", 20, "number of records to show (0 for all)")
	cmd.Flags().StringVar(&f.RunID, "run", "", "only records of this run id")
	return cmd
}
