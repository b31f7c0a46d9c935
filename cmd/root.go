package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	ganesha "github.com/orthopteroid/ganesha-xl"
	"github.com/orthopteroid/ganesha-xl/population"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const envPrefix = "GANESHA"

var numPrinter = message.NewPrinter(language.English)

// globals are the flags shared by every subcommand.
type globals struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	LogLevel  string
	LogFormat string
	Seed      int64
}

func (g *globals) logger() (*ganesha.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.LogLevel)); err != nil {
		return nil, errors.Wrapf(err, "log level %q", g.LogLevel)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch g.LogFormat {
	case "text":
		return ganesha.NewLogger(slog.NewTextHandler(g.stderr, opts)), nil
	case "json":
		return ganesha.NewLogger(slog.NewJSONHandler(g.stderr, opts)), nil
	default:
		return nil, errors.Errorf("unknown log format %q", g.LogFormat)
	}
}

func (g *globals) source() population.Source {
	if g.Seed != 0 {
		return population.NewSeededSource(g.Seed)
	}
	return population.NewSource()
}

func (g *globals) engine(opts ...ganesha.Option) (*ganesha.Engine, error) {
	logger, err := g.logger()
	if err != nil {
		return nil, err
	}
	return ganesha.New(append([]ganesha.Option{
		ganesha.WithLogger(logger),
		ganesha.WithSource(g.source()),
	}, opts...)...)
}

func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	g := &globals{stdin: stdin, stdout: stdout, stderr: stderr}

	rc := &cobra.Command{
		Use:   "ganesha",
		Short: "Bit-packed genetic algorithm populations.",
		Long: `ganesha packs genetic-algorithm members into bit layouts described by a row of
column formats, decodes them, and breeds them.

Members travel as base64 text, one per line. Column formats are given with
repeated --format flags:

  n              not applicable
  b,<bits>       unsigned integer
  f,<off>,<step>,<count>
                 quantized float
  p,<n>,<k>,<group>,<pick>
                 symbol <pick> of a k-permutation of n symbols
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := rc.PersistentFlags()
	flags.StringP("config", "c", "", "Configuration file to read from.")
	flags.StringVar(&g.LogLevel, "log-level", "info", "Minimum log level (debug, info, warn, error).")
	flags.StringVar(&g.LogFormat, "log-format", "text", "Log format (text or json).")
	flags.Int64Var(&g.Seed, "seed", 0, "Seed for the random source. 0 seeds from the clock.")

	rc.AddCommand(newPermCommand(g))
	rc.AddCommand(newRandomCommand(g))
	rc.AddCommand(newParseCommand(g))
	rc.AddCommand(newCrossCommand(g))
	rc.AddCommand(newSampleCommand(g))
	rc.AddCommand(newEvolveCommand(g))
	rc.AddCommand(newGenerateConfigCommand(g))

	known := knownFlags(rc)
	rc.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setAllConfig(viper.New(), cmd.Flags(), known)
	}

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// knownFlags collects the flag names of every command in the tree. A config file may set any of
// them; each command picks up the ones it defines.
func knownFlags(root *cobra.Command) map[string]bool {
	known := make(map[string]bool)
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		visit := func(f *pflag.Flag) { known[f.Name] = true }
		c.PersistentFlags().VisitAll(visit)
		c.Flags().VisitAll(visit)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(root)
	return known
}

// setAllConfig takes a FlagSet to be the definition of all configuration
// options, as well as their defaults. It then reads from the command line, the
// environment, and a config file (if specified), and applies the configuration
// in that priority order.
//
// Environment variables are capitalized flag names with dashes replaced by
// underscores, prefixed with GANESHA_.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet, known map[string]bool) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if c := v.GetString("config"); c != "" {
		v.SetConfigFile(c)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading configuration file '%s': %v", c, err)
		}

		for _, key := range v.AllKeys() {
			if !known[key] {
				return fmt.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			return
		}

		// Column formats contain commas, so they are string arrays rather than
		// comma-split string slices, and arrays from a config file come back
		// from viper as slices.
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			vals := v.GetStringSlice(f.Name)
			if len(vals) > 0 {
				flagErr = sv.Replace(vals)
			}
			return
		}
		flagErr = f.Value.Set(v.GetString(f.Name))
	})
	return flagErr
}
