package cmd

import (
	"fmt"

	"github.com/orthopteroid/ganesha-xl/codec"
	"github.com/orthopteroid/ganesha-xl/population"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newCrossCommand(g *globals) *cobra.Command {
	var members, pairs string
	var denom uint32

	cc := &cobra.Command{
		Use:   "cross",
		Short: "Breed one offspring per parent pair.",
		Long: `cross reads members, one per line, and parent pairs, two row indices per line
as printed by sample, and prints one offspring per pair. A pair naming the
same row twice copies that member. Rows that could not be bred print #VALUE!.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pairs == "" {
				return errors.New("--pairs is required")
			}
			m, err := g.readLines(members)
			if err != nil {
				return err
			}
			p, err := g.readPairs(pairs)
			if err != nil {
				return err
			}
			e, err := g.engine()
			if err != nil {
				return err
			}

			for _, enc := range e.Cross(m, p, denom) {
				text := enc.Text
				if enc.Err != nil {
					text = codec.ErrorText
				}
				fmt.Fprintln(g.stdout, text)
			}
			return nil
		},
	}

	flags := cc.Flags()
	flags.StringVarP(&members, "members", "m", "-", "File of members. - reads stdin.")
	flags.StringVarP(&pairs, "pairs", "p", "", "File of parent pairs.")
	flags.Uint32Var(&denom, "denom", population.DefaultMutationDenominator, "Mutate one bit in 1 of this many offspring.")
	return cc
}
