package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRandomCommand(g *globals) *cobra.Command {
	var format []string
	var count int

	rc := &cobra.Command{
		Use:   "random",
		Short: "Print random members laid out by the column formats.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.engine()
			if err != nil {
				return err
			}
			for _, enc := range e.Random(format, count) {
				if enc.Err != nil {
					return enc.Err
				}
				fmt.Fprintln(g.stdout, enc.Text)
			}
			return nil
		},
	}

	flags := rc.Flags()
	flags.StringArrayVarP(&format, "format", "f", nil, "Column format; repeat once per column.")
	flags.IntVarP(&count, "count", "n", 10, "Number of members.")
	return rc
}
