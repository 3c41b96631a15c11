package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datallboy/comexdown/internal/catalog"
	"github.com/datallboy/comexdown/internal/engine"
)

const (
	listingIndent = 13
	listingWidth  = 70
)

func newTableCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table [name...|all]",
		Short: "Download auxiliary code tables (no names lists them)",
		Example: `  comexdown table
  comexdown table ncm pais
  comexdown table all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				printCatalog(cmd.OutOrStdout(), catalog.Default())
				return nil
			}

			a, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return runPlan(cmd, a, engine.PlanTables(args, a.Catalog), false)
		},
	}

	return cmd
}

func printCatalog(w io.Writer, cat *catalog.Catalog) {
	fmt.Fprintln(w, "\nAvailable code tables:")

	pad := strings.Repeat(" ", listingIndent)
	for _, t := range cat.Tables() {
		fmt.Fprintf(w, "\n  %-11s%s\n", t.Name, t.Title)
		for _, line := range wrapWords(t.Description, listingWidth) {
			fmt.Fprintln(w, pad+line)
		}
	}
	fmt.Fprintln(w)
}

// wrapWords splits s into lines no longer than width, breaking on spaces.
// A single word longer than width gets a line of its own.
func wrapWords(s string, width int) []string {
	var lines []string
	var cur strings.Builder

	for _, word := range strings.Fields(s) {
		if cur.Len() > 0 && cur.Len()+1+len(word) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}

	return lines
}
