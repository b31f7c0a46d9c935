package cmd

import (
	"fmt"
	"strconv"

	"github.com/orthopteroid/ganesha-xl/perm"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newPermCommand(g *globals) *cobra.Command {
	var serial uint64
	var decode bool

	pc := &cobra.Command{
		Use:   "perm <n> <k>",
		Short: "Print the bits reserved for a k-permutation of n symbols.",
		Long: `perm prints the bit width reserved by a "p,<n>,<k>,<group>,0" column.
With --decode it prints the permutation a serial number selects instead.
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var nk [2]uint16
			for i, arg := range args {
				v, err := strconv.ParseUint(arg, 10, 16)
				if err != nil {
					return errors.Wrapf(err, "argument %q", arg)
				}
				nk[i] = uint16(v)
			}

			if !decode {
				_, err := fmt.Fprintln(g.stdout, perm.BitWidth(nk[0], nk[1]))
				return err
			}
			for i, sym := range perm.Decode(serial, nk[0], nk[1]) {
				if i > 0 {
					fmt.Fprint(g.stdout, "\t")
				}
				fmt.Fprint(g.stdout, sym)
			}
			_, err := fmt.Fprintln(g.stdout)
			return err
		},
	}

	flags := pc.Flags()
	flags.BoolVar(&decode, "decode", false, "Print the permutation selected by --serial.")
	flags.Uint64Var(&serial, "serial", 0, "Serial number to decode.")
	return pc
}
