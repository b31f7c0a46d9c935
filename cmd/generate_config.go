package cmd

import (
	"fmt"

	ganesha "github.com/orthopteroid/ganesha-xl"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Config mirrors the flags a configuration file may set for evolve. Keys are flag names.
type Config struct {
	LogLevel  string `toml:"log-level"`
	LogFormat string `toml:"log-format"`
	Seed      int64  `toml:"seed"`

	Format      []string `toml:"format"`
	Column      []string `toml:"column"`
	Fitness     string   `toml:"fitness"`
	Population  int      `toml:"population"`
	Generations int      `toml:"generations"`
	Target      float64  `toml:"target"`
	Denom       uint32   `toml:"denom"`
	Amplifier   float64  `toml:"amplifier"`
	Workers     int      `toml:"workers"`
	ReportEvery int      `toml:"report-every"`
	MetricsAddr string   `toml:"metrics-addr"`
}

// DefaultConfig returns the built-in defaults with an example layout.
func DefaultConfig() Config {
	p := ganesha.DefaultSimulationParams()
	return Config{
		LogLevel:  "info",
		LogFormat: "text",

		Format:      []string{"b,4", "f,0,0.5,8", "p,5,2,0,0", "p,5,2,0,1"},
		Column:      []string{"a", "x", "first", "second"},
		Fitness:     "a + x + first * second",
		Population:  p.PopulationSize,
		Generations: p.Generations,
		Target:      p.TargetFitness,
		Denom:       p.MutationDenominator,
		Amplifier:   p.Amplifier,
		Workers:     p.NumEvaluationWorkers,
		ReportEvery: p.ReportEvery,
	}
}

func newGenerateConfigCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "generate-config",
		Short: "Print the default configuration.",
		Long: `generate-config prints the default configuration to stdout
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ret, err := toml.Marshal(DefaultConfig())
			if err != nil {
				return errors.Wrap(err, "marshalling default config")
			}
			_, err = fmt.Fprintf(g.stdout, "%s\n", ret)
			return err
		},
	}
}
