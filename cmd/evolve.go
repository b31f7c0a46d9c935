package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"

	ganesha "github.com/orthopteroid/ganesha-xl"
	"github.com/orthopteroid/ganesha-xl/metrics/prom"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newEvolveCommand(g *globals) *cobra.Command {
	params := ganesha.DefaultSimulationParams()
	var metricsAddr string

	ec := &cobra.Command{
		Use:   "evolve",
		Short: "Evolve a population toward a fitness expression.",
		Long: `evolve runs the whole loop in-process: random members are decoded, scored by
the --fitness expression, selected, and bred, generation after generation.

The expression sees each column as a variable named by --column, or c0, c1, ...
when unnamed. Columns that are not applicable or failed to decode are
undefined, and an expression reading one scores 0.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := g.logger()
			if err != nil {
				return err
			}
			params.Seed = g.Seed
			opts := []ganesha.Option{ganesha.WithLogger(logger)}

			if metricsAddr != "" {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector())
				c, err := prom.New(reg)
				if err != nil {
					return errors.Wrap(err, "registering metrics")
				}
				opts = append(opts, ganesha.WithMetrics(c))

				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
				srv := &http.Server{Addr: metricsAddr, Handler: mux}
				go func() {
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						logger.Error("metrics server failed", "addr", metricsAddr, "error", err)
					}
				}()
				defer srv.Close()
				logger.Info("serving metrics", "addr", metricsAddr)
			}

			sim, err := ganesha.NewSimulation(params, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if err := sim.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return printBest(g, sim)
		},
	}

	flags := ec.Flags()
	flags.StringArrayVarP(&params.Format, "format", "f", nil, "Column format; repeat once per column.")
	flags.StringArrayVar(&params.Columns, "column", nil, "Variable name of the next column in the fitness expression; repeat in column order.")
	flags.StringVar(&params.Fitness, "fitness", "", "Fitness expression over the columns.")
	flags.IntVar(&params.PopulationSize, "population", params.PopulationSize, "Number of members in each generation.")
	flags.IntVar(&params.Generations, "generations", params.Generations, "Generations to run. 0 runs until the target is reached or interrupted.")
	flags.Float64Var(&params.TargetFitness, "target", params.TargetFitness, "Stop once the best member scores at least this. 0 disables.")
	flags.Uint32Var(&params.MutationDenominator, "denom", params.MutationDenominator, "Mutate one bit in 1 of this many offspring.")
	flags.Float64Var(&params.Amplifier, "amplifier", params.Amplifier, "Roulette slots given to the fittest member.")
	flags.IntVar(&params.NumEvaluationWorkers, "workers", params.NumEvaluationWorkers, "Goroutines scoring members. 0 scores inline.")
	flags.IntVar(&params.ReportEvery, "report-every", params.ReportEvery, "Log progress every this many generations.")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running.")
	return ec
}

func printBest(g *globals, sim *ganesha.Simulation) error {
	best := sim.Best()
	if best == nil {
		return errors.New("no members were evaluated")
	}

	numPrinter.Fprintf(g.stdout, "generation %d, best fitness %g\n", sim.Generation(), best.Fitness)
	fmt.Fprintln(g.stdout, best.Text())

	cells := make([]string, len(best.Values))
	for i, v := range best.Values {
		cells[i] = v.String()
	}
	_, err := fmt.Fprintln(g.stdout, strings.Join(cells, "\t"))
	return err
}
