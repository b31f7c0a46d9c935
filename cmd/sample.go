package cmd

import (
	"fmt"

	ganesha "github.com/orthopteroid/ganesha-xl"
	"github.com/orthopteroid/ganesha-xl/codec"
	"github.com/orthopteroid/ganesha-xl/population"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newSampleCommand(g *globals) *cobra.Command {
	var members, fitness string
	var amplifier float64

	sc := &cobra.Command{
		Use:   "sample",
		Short: "Select a parent pair for every member by fitness.",
		Long: `sample reads members and their fitness, one per line in the same order, and
prints one tab-separated pair of parent row indices per member.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fitness == "" {
				return errors.New("--fitness-file is required")
			}
			m, err := g.readLines(members)
			if err != nil {
				return err
			}
			f, err := g.readFitness(fitness)
			if err != nil {
				return err
			}
			e, err := g.engine(ganesha.WithAmplifier(amplifier))
			if err != nil {
				return err
			}

			for _, p := range e.Sample(m, f) {
				if p.Err != nil {
					fmt.Fprintf(g.stdout, "%s\t%s\n", codec.ErrorText, codec.ErrorText)
					continue
				}
				fmt.Fprintf(g.stdout, "%d\t%d\n", p.First, p.Second)
			}
			return nil
		},
	}

	flags := sc.Flags()
	flags.StringVarP(&members, "members", "m", "-", "File of members. - reads stdin.")
	flags.StringVar(&fitness, "fitness-file", "", "File of fitness values.")
	flags.Float64Var(&amplifier, "amplifier", population.DefaultAmplifier, "Roulette slots given to the fittest member.")
	return sc
}
