package ganesha

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational events from an Engine or Simulation.
// metrics/prom provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordCall is called after each boundary operation (random, parse, cross, sample).
	RecordCall(op string, rows int, duration time.Duration, err error)

	// RecordSchema is called after each schema lookup.
	RecordSchema(hit bool, invalidColumns int)

	// RecordGenerated is called with the number of random members produced.
	RecordGenerated(count int)

	// RecordOffspring is called for each offspring. copied is set for self-paired rows.
	RecordOffspring(copied, mutated bool)

	// RecordSelection is called after each selection round.
	RecordSelection(rows int, uniform bool)

	// RecordGeneration is called after each simulation step.
	RecordGeneration(generation int, best float64)
}

// NoopMetricsCollector discards every event.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCall(string, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSchema(bool, int)                       {}
func (NoopMetricsCollector) RecordGenerated(int)                          {}
func (NoopMetricsCollector) RecordOffspring(bool, bool)                   {}
func (NoopMetricsCollector) RecordSelection(int, bool)                    {}
func (NoopMetricsCollector) RecordGeneration(int, float64)                {}

// BasicMetricsCollector counts events in memory.
type BasicMetricsCollector struct {
	Calls        atomic.Int64
	CallErrors   atomic.Int64
	SchemaHits   atomic.Int64
	SchemaMisses atomic.Int64
	Generated    atomic.Int64
	Crossovers   atomic.Int64
	Copies       atomic.Int64
	Mutations    atomic.Int64
	Selections   atomic.Int64
	Uniform      atomic.Int64
	Generation   atomic.Int64
}

func (b *BasicMetricsCollector) RecordCall(op string, rows int, duration time.Duration, err error) {
	b.Calls.Add(1)
	if err != nil {
		b.CallErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordSchema(hit bool, invalidColumns int) {
	if hit {
		b.SchemaHits.Add(1)
	} else {
		b.SchemaMisses.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordGenerated(count int) {
	b.Generated.Add(int64(count))
}

func (b *BasicMetricsCollector) RecordOffspring(copied, mutated bool) {
	if copied {
		b.Copies.Add(1)
		return
	}
	b.Crossovers.Add(1)
	if mutated {
		b.Mutations.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordSelection(rows int, uniform bool) {
	b.Selections.Add(1)
	if uniform {
		b.Uniform.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordGeneration(generation int, best float64) {
	b.Generation.Store(int64(generation))
}
