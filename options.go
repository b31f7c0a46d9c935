package ganesha

import (
	"github.com/orthopteroid/ganesha-xl/population"
	"github.com/orthopteroid/ganesha-xl/schema"
)

type options struct {
	source    population.Source
	hasher    population.Hasher
	logger    *Logger
	metrics   MetricsCollector
	cacheSize int
	amplifier float64
}

func defaultOptions() options {
	return options{
		hasher:    population.DefaultHasher,
		logger:    NoopLogger(),
		metrics:   NoopMetricsCollector{},
		cacheSize: schema.DefaultCacheSize,
		amplifier: population.DefaultAmplifier,
	}
}

// Option configures an Engine.
type Option func(*options)

// WithSource sets the randomness source. The default is a clock-seeded
// population.LockedSource.
func WithSource(src population.Source) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithHasher sets the digest used to spot duplicate members during selection.
func WithHasher(h population.Hasher) Option {
	return func(o *options) {
		if h != nil {
			o.hasher = h
		}
	}
}

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics configures a metrics collector. Pass nil to disable metrics.
func WithMetrics(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithCacheSize sets how many distinct format rows stay parsed.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithAmplifier sets the roulette slot count of the fittest member during selection.
func WithAmplifier(a float64) Option {
	return func(o *options) {
		o.amplifier = a
	}
}
