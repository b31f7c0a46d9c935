package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

func newParseCommand(g *globals) *cobra.Command {
	var format []string
	var input string

	pc := &cobra.Command{
		Use:   "parse",
		Short: "Decode members into tab-separated columns.",
		Long: `parse decodes one member per input line and prints its columns separated by
tabs. Not-applicable columns print as #N/A and failed ones as #VALUE!.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := g.readLines(input)
			if err != nil {
				return err
			}
			e, err := g.engine()
			if err != nil {
				return err
			}

			var sb strings.Builder
			for _, row := range e.Parse(format, members) {
				sb.Reset()
				for i, v := range row {
					if i > 0 {
						sb.WriteByte('\t')
					}
					sb.WriteString(v.String())
				}
				sb.WriteByte('\n')
				if _, err := g.stdout.Write([]byte(sb.String())); err != nil {
					return err
				}
			}
			return nil
		},
	}

	flags := pc.Flags()
	flags.StringArrayVarP(&format, "format", "f", nil, "Column format; repeat once per column.")
	flags.StringVarP(&input, "input", "i", "-", "File of members, one per line. - reads stdin.")
	return pc
}
