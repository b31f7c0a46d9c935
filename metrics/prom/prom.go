// Package prom reports engine and simulation events as Prometheus metrics.
package prom

import (
	"time"

	ganesha "github.com/orthopteroid/ganesha-xl"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ganesha"

// Collector implements ganesha.MetricsCollector.
type Collector struct {
	callLatency *prometheus.HistogramVec
	schema      *prometheus.CounterVec
	invalid     prometheus.Gauge
	generated   prometheus.Counter
	offspring   *prometheus.CounterVec
	selections  *prometheus.CounterVec
	generation  prometheus.Gauge
	best        prometheus.Gauge
}

var _ ganesha.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers it with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		callLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Latency of boundary operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		schema: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_lookups_total",
			Help:      "Schema cache lookups",
		}, []string{"result"}),
		invalid: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "schema_invalid_columns",
			Help:      "Invalid columns in the most recently looked up format row",
		}),
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "members_generated_total",
			Help:      "Random members generated",
		}),
		offspring: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offspring_total",
			Help:      "Offspring produced, by how they were made",
		}, []string{"kind"}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Selection rounds, by whether they fell back to uniform pairs",
		}, []string{"mode"}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation",
			Help:      "Current simulation generation",
		}),
		best: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_fitness",
			Help:      "Fitness of the best member seen",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.callLatency, c.schema, c.invalid, c.generated, c.offspring, c.selections, c.generation, c.best,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) RecordCall(op string, rows int, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.callLatency.WithLabelValues(op, status).Observe(d.Seconds())
}

func (c *Collector) RecordSchema(hit bool, invalidColumns int) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.schema.WithLabelValues(result).Inc()
	c.invalid.Set(float64(invalidColumns))
}

func (c *Collector) RecordGenerated(count int) {
	c.generated.Add(float64(count))
}

func (c *Collector) RecordOffspring(copied, mutated bool) {
	switch {
	case copied:
		c.offspring.WithLabelValues("copy").Inc()
	case mutated:
		c.offspring.WithLabelValues("mutated").Inc()
	default:
		c.offspring.WithLabelValues("crossover").Inc()
	}
}

func (c *Collector) RecordSelection(rows int, uniform bool) {
	mode := "weighted"
	if uniform {
		mode = "uniform"
	}
	c.selections.WithLabelValues(mode).Inc()
}

func (c *Collector) RecordGeneration(generation int, best float64) {
	c.generation.Set(float64(generation))
	c.best.Set(best)
}
