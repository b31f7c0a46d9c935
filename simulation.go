package ganesha

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/PaesslerAG/gval"
	"github.com/google/uuid"
	"github.com/orthopteroid/ganesha-xl/codec"
	"github.com/orthopteroid/ganesha-xl/population"
	"github.com/orthopteroid/ganesha-xl/schema"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var ErrNoFitness = errors.New("no fitness expression or function")

// FitnessLanguage is gval's full language plus a few float helpers.
var FitnessLanguage = gval.NewLanguage(
	gval.Full(),
	gval.Function("abs", math.Abs),
	gval.Function("sqrt", math.Sqrt),
	gval.Function("pow", math.Pow),
	gval.Function("min", math.Min),
	gval.Function("max", math.Max),
)

type SimulationParams struct {
	// Column formats of each member, one descriptor per column.
	Format []string

	// Variable names the fitness expression sees for each column.
	// Columns without a name are called c0, c1, ...
	Columns []string

	// Fitness expression over the decoded columns, evaluated with FitnessLanguage.
	// NA and error cells are left undefined, so an expression reading one fails and scores 0.
	Fitness string

	// Used instead of Fitness when set.
	FitnessFunc func(values []codec.Value) (float64, error)

	// Number of members in each generation.
	PopulationSize int

	// Number of generations Run iterates. Set to 0 to run until TargetFitness is reached or the
	// context ends.
	Generations int

	// Run stops once the best member scores at least this much. Set to 0 to disable.
	TargetFitness float64

	// Each crossover mutates one bit with odds of 1 in MutationDenominator.
	MutationDenominator uint32

	// Roulette slots given to the fittest member during selection.
	Amplifier float64

	// Number of workers evaluating fitness each generation.
	// Set to 0 to run without goroutines.
	NumEvaluationWorkers int

	// Run logs progress every ReportEvery generations. Set to 0 to log only start and end.
	ReportEvery int

	// Seed of the random source when no WithSource option is given. 0 seeds from the clock.
	Seed int64
}

func DefaultSimulationParams() *SimulationParams {
	return &SimulationParams{
		PopulationSize: 60,
		Generations:    200,

		MutationDenominator: population.DefaultMutationDenominator,
		Amplifier:           population.DefaultAmplifier,

		NumEvaluationWorkers: 0,
		ReportEvery:          50,
	}
}

// Member is one encoded individual with its decoded columns and score.
type Member struct {
	Bytes   []byte
	Values  []codec.Value
	Fitness float64
}

// Text returns the member in transport form.
func (m *Member) Text() string {
	return EncodeMember(m.Bytes)
}

type Population []*Member

func (pop Population) bytes() [][]byte {
	out := make([][]byte, len(pop))
	for i, m := range pop {
		out[i] = m.Bytes
	}
	return out
}

func (pop Population) fitness() []float64 {
	out := make([]float64, len(pop))
	for i, m := range pop {
		out[i] = m.Fitness
	}
	return out
}

// Simulation evolves a population laid out by a format row toward higher fitness. Selection
// treats fitness by magnitude, so Best is the member with the largest absolute score.
type Simulation struct {
	params  SimulationParams
	opts    options
	id      uuid.UUID
	log     *Logger
	schema  *schema.Schema
	vars    []string
	fitness gval.Evaluable

	generation int
	population Population
	best       *Member
}

func NewSimulation(params *SimulationParams, opts ...Option) (*Simulation, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.source == nil {
		if params.Seed != 0 {
			o.source = population.NewSeededSource(params.Seed)
		} else {
			o.source = population.NewSource()
		}
	}

	if params.PopulationSize < 1 {
		return nil, errors.Errorf("population size %d must be positive", params.PopulationSize)
	}

	sim := &Simulation{
		params: *params,
		opts:   o,
		id:     uuid.New(),
		schema: schema.Parse(params.Format),
	}
	sim.log = o.logger.WithRun(sim.id.String())
	if sim.params.MutationDenominator == 0 {
		sim.params.MutationDenominator = population.DefaultMutationDenominator
	}

	sim.vars = make([]string, sim.schema.Len())
	for i := range sim.vars {
		if i < len(params.Columns) && params.Columns[i] != "" {
			sim.vars[i] = params.Columns[i]
		} else {
			sim.vars[i] = fmt.Sprintf("c%d", i)
		}
	}

	if params.FitnessFunc == nil {
		if params.Fitness == "" {
			return nil, ErrNoFitness
		}
		eval, err := FitnessLanguage.NewEvaluable(params.Fitness)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing fitness %q", params.Fitness)
		}
		sim.fitness = eval
	}

	if bad := sim.schema.Invalid(); len(bad) > 0 {
		sim.log.Warn("format has invalid columns", "invalid", bad)
	}
	return sim, nil
}

// ID identifies this run in logs.
func (sim *Simulation) ID() string {
	return sim.id.String()
}

func (sim *Simulation) Schema() *schema.Schema {
	return sim.schema
}

func (sim *Simulation) Generation() int {
	return sim.generation
}

func (sim *Simulation) Population() Population {
	return sim.population
}

// Best returns the fittest member seen so far, or nil before Init.
func (sim *Simulation) Best() *Member {
	return sim.best
}

// Init creates and scores a random first generation.
func (sim *Simulation) Init(ctx context.Context) error {
	members := population.Generate(sim.opts.source, sim.schema, sim.params.PopulationSize)
	sim.opts.metrics.RecordGenerated(len(members))

	pop := make(Population, len(members))
	for i, m := range members {
		pop[i] = &Member{Bytes: m}
	}
	if err := sim.evaluate(ctx, pop); err != nil {
		return err
	}

	sim.population = pop
	sim.generation = 0
	sim.best = nil
	sim.track()
	return nil
}

// Step breeds the next generation and returns whether the target fitness has been reached.
func (sim *Simulation) Step(ctx context.Context) (bool, error) {
	if sim.population == nil {
		if err := sim.Init(ctx); err != nil {
			return false, err
		}
	}

	parents := sim.population.bytes()
	sel, err := population.Select(sim.opts.source, parents, sim.population.fitness(),
		population.WithHasher(sim.opts.hasher),
		population.WithAmplifier(sim.params.Amplifier),
	)
	if err != nil {
		return false, err
	}
	sim.opts.metrics.RecordSelection(len(sel.Pairs), sel.Uniform)

	next := make(Population, len(sel.Pairs))
	for i, p := range sel.Pairs {
		child, err := population.Breed(sim.opts.source, parents, p, sim.params.MutationDenominator)
		if err != nil {
			return false, errors.Wrapf(err, "generation %d row %d", sim.generation+1, i)
		}
		sim.opts.metrics.RecordOffspring(child.Copied, child.Splice.Mutate)
		next[i] = &Member{Bytes: child.Member}
	}

	if err := sim.evaluate(ctx, next); err != nil {
		return false, err
	}

	sim.population = next
	sim.generation++
	sim.track()
	return sim.solved(), nil
}

// Run steps the simulation until the generation limit, the target fitness, or the end of ctx.
func (sim *Simulation) Run(ctx context.Context) error {
	sim.log.Info("simulation started",
		"columns", sim.schema.Len(),
		"bits", sim.schema.TotalBits(),
		"population", sim.params.PopulationSize,
	)

	startedAt := time.Now()
	if sim.population == nil {
		if err := sim.Init(ctx); err != nil {
			return err
		}
	}

	for !sim.solved() {
		if sim.params.Generations > 0 && sim.generation >= sim.params.Generations {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := sim.Step(ctx); err != nil {
			return err
		}
		if sim.params.ReportEvery > 0 && sim.generation%sim.params.ReportEvery == 0 {
			sim.log.Info("simulation progress",
				"generation", sim.generation,
				"best", sim.best.Fitness,
			)
		}
	}

	sim.log.Info("simulation finished",
		"generation", sim.generation,
		"best", sim.best.Fitness,
		"solved", sim.solved(),
		"elapsed", time.Since(startedAt),
	)
	return nil
}

func (sim *Simulation) solved() bool {
	return sim.params.TargetFitness > 0 && sim.best != nil && usable(sim.best.Fitness) >= sim.params.TargetFitness
}

func (sim *Simulation) track() {
	row := -1
	for i, m := range sim.population {
		if sim.best == nil || usable(m.Fitness) > usable(sim.best.Fitness) {
			sim.best = m
			row = i
		}
	}

	var best float64
	if sim.best != nil {
		best = sim.best.Fitness
	}
	sim.log.LogGeneration(sim.generation, best, row)
	sim.opts.metrics.RecordGeneration(sim.generation, best)
}

func usable(f float64) float64 {
	f = math.Abs(f)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// evaluate decodes and scores every member, splitting the population across the evaluation
// workers.
func (sim *Simulation) evaluate(ctx context.Context, pop Population) error {
	evaluateMembers := func(ctx context.Context, members Population) error {
		x := codec.NewExtractor(sim.schema)
		for _, m := range members {
			if err := ctx.Err(); err != nil {
				return err
			}

			x.Reset(m.Bytes)
			m.Values = make([]codec.Value, sim.schema.Len())
			for col := range m.Values {
				m.Values[col] = x.Extract(col)
			}
			m.Fitness = sim.score(ctx, m.Values)
		}
		return nil
	}

	if sim.params.NumEvaluationWorkers <= 0 {
		return evaluateMembers(ctx, pop)
	}

	g, gctx := errgroup.WithContext(ctx)
	chunkSize := (len(pop) + sim.params.NumEvaluationWorkers - 1) / sim.params.NumEvaluationWorkers
	for start := 0; start < len(pop); start += chunkSize {
		end := start + chunkSize
		if end > len(pop) {
			end = len(pop)
		}

		chunk := pop[start:end]
		g.Go(func() error {
			return evaluateMembers(gctx, chunk)
		})
	}
	return g.Wait()
}

func (sim *Simulation) score(ctx context.Context, values []codec.Value) float64 {
	if sim.params.FitnessFunc != nil {
		f, err := sim.params.FitnessFunc(values)
		if err != nil {
			return 0
		}
		return f
	}

	vars := make(map[string]interface{}, len(values))
	for i, v := range values {
		if f, ok := v.Float64(); ok {
			vars[sim.vars[i]] = f
		}
	}

	f, err := sim.fitness.EvalFloat64(ctx, vars)
	if err != nil {
		return 0
	}
	return f
}
