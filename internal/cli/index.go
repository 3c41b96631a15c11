package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCmd(g *globalOptions) *cobra.Command {
	var load bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild index.json (hash, size, timestamp of every file)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if load {
				idx, err := a.Index.Load()
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(idx)
			}

			idx, err := a.Index.Rebuild(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d files in %s\n", len(idx.Files()), a.Index.ManifestPath())
			return nil
		},
	}

	cmd.Flags().BoolVar(&load, "load", false, "print the stored index instead of rebuilding it")
	return cmd
}
