// Package ganesha packs genetic-algorithm population members into bit-level layouts described
// by a row of column formats, and breeds them. Engine exposes the operations a spreadsheet host
// calls, with members carried as base64 text; Simulation runs the whole loop in-process.
package ganesha

import (
	"encoding/base64"
	"time"

	"github.com/orthopteroid/ganesha-xl/codec"
	"github.com/orthopteroid/ganesha-xl/perm"
	"github.com/orthopteroid/ganesha-xl/population"
	"github.com/orthopteroid/ganesha-xl/schema"
	"github.com/pkg/errors"
)

// ErrPanic wraps a panic recovered inside an Engine operation.
var ErrPanic = errors.New("operation panicked")

// Encoded is one member in transport form, or the error that kept it from being produced.
type Encoded struct {
	Text string
	Err  error
}

// PairResult is one selected parent pair, or the error that kept it from being drawn.
type PairResult struct {
	population.Pair
	Err error
}

// EncodeMember renders a member for transport.
func EncodeMember(member []byte) string {
	return base64.StdEncoding.EncodeToString(member)
}

// DecodeMember parses a member from transport form.
func DecodeMember(text string) ([]byte, error) {
	member, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding member %q", text)
	}
	return member, nil
}

// Engine runs the population operations over transport-encoded members. It is safe for
// concurrent use. No operation returns an error or panics: a failure marks the failing row and
// every row after it, keeping the rows already produced.
type Engine struct {
	opts  options
	cache *schema.Cache
}

func New(opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.source == nil {
		o.source = population.NewSource()
	}

	e := &Engine{opts: o}
	cache, err := schema.NewCache(
		schema.WithCacheSize(o.cacheSize),
		schema.WithObserver(e.observeSchema),
	)
	if err != nil {
		return nil, err
	}
	e.cache = cache
	return e, nil
}

func (e *Engine) observeSchema(hit bool, s *schema.Schema) {
	e.opts.logger.LogSchema(hit, s.Len(), int(s.TotalBits()), s.Invalid())
	e.opts.metrics.RecordSchema(hit, len(s.Invalid()))
}

// Schema returns the parsed layout of a format row, from cache when the row is unchanged.
func (e *Engine) Schema(format []string) *schema.Schema {
	return e.cache.GetOrParse(format)
}

// PermBits returns the bits reserved for a k-permutation of n symbols.
func (e *Engine) PermBits(n, k uint16) uint16 {
	return perm.BitWidth(n, k)
}

// Random returns count random members laid out for format.
func (e *Engine) Random(format []string, count int) (out []Encoded) {
	if count < 0 {
		count = 0
	}
	out = make([]Encoded, count)

	var (
		row   int
		err   error
		start = time.Now()
	)
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrPanic, "%v", r)
			fillFrom(out, row, Encoded{Err: err})
		}
		e.finish("random", count, start, err)
	}()

	s := e.Schema(format)
	members := population.Generate(e.opts.source, s, count)
	for ; row < count; row++ {
		out[row].Text = EncodeMember(members[row])
	}
	e.opts.metrics.RecordGenerated(count)
	return out
}

// Parse decodes every member against format, one row of values per member. A member that is
// not valid transport text fills its row and every later row with error values.
func (e *Engine) Parse(format []string, members []string) (out [][]codec.Value) {
	out = make([][]codec.Value, len(members))

	var (
		row   int
		err   error
		start = time.Now()
		width = len(format)
	)
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrPanic, "%v", r)
		}
		if err != nil {
			for ; row < len(out); row++ {
				out[row] = errorRow(width, err)
			}
		}
		e.finish("parse", len(members), start, err)
	}()

	s := e.Schema(format)
	x := codec.NewExtractor(s)
	for ; row < len(members); row++ {
		var member []byte
		if member, err = DecodeMember(members[row]); err != nil {
			err = errors.Wrapf(err, "row %d", row)
			return out
		}

		x.Reset(member)
		values := make([]codec.Value, s.Len())
		for col := range values {
			values[col] = x.Extract(col)
		}
		out[row] = values
	}
	return out
}

func errorRow(width int, err error) []codec.Value {
	values := make([]codec.Value, width)
	for i := range values {
		values[i] = codec.Error(err)
	}
	return values
}

// Cross breeds one offspring per pair. A pair naming the same row twice copies that member's
// text unchanged. Members are decoded as pairs first use them, so a bad member fails from the
// first row that crosses it. denom is the mutation odds (1 in denom); 0 selects
// population.DefaultMutationDenominator.
func (e *Engine) Cross(members []string, pairs []population.Pair, denom uint32) (out []Encoded) {
	out = make([]Encoded, len(pairs))
	if denom == 0 {
		denom = population.DefaultMutationDenominator
	}

	var (
		row   int
		err   error
		start = time.Now()
	)
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrPanic, "%v", r)
		}
		if err != nil {
			fillFrom(out, row, Encoded{Err: err})
		}
		e.finish("cross", len(pairs), start, err)
	}()

	decoded := make([][]byte, len(members))
	for ; row < len(pairs); row++ {
		p := pairs[row]
		if p.First == p.Second && p.First >= 0 && p.First < len(members) {
			out[row].Text = members[p.First]
			e.opts.metrics.RecordOffspring(true, false)
			continue
		}
		if err = decodeLazily(decoded, members, p.First, p.Second); err != nil {
			err = errors.Wrapf(err, "row %d", row)
			return out
		}

		var child population.Child
		child, err = population.Breed(e.opts.source, decoded, p, denom)
		if err != nil {
			err = errors.Wrapf(err, "row %d", row)
			return out
		}
		out[row].Text = EncodeMember(child.Member)
		e.opts.metrics.RecordOffspring(child.Copied, child.Splice.Mutate)
	}
	return out
}

// Sample selects one parent pair per member, weighting by fitness.
func (e *Engine) Sample(members []string, fitness []float64) (out []PairResult) {
	out = make([]PairResult, len(members))

	var (
		err   error
		start = time.Now()
	)
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrPanic, "%v", r)
		}
		if err != nil {
			fillFrom(out, 0, PairResult{Err: err})
		}
		e.finish("sample", len(members), start, err)
	}()

	decoded, err := decodeMembers(members)
	if err != nil {
		return out
	}

	sel, err := population.Select(e.opts.source, decoded, fitness,
		population.WithHasher(e.opts.hasher),
		population.WithAmplifier(e.opts.amplifier),
	)
	if err != nil {
		return out
	}

	for i, p := range sel.Pairs {
		out[i].Pair = p
	}
	e.opts.metrics.RecordSelection(len(sel.Pairs), sel.Uniform)
	return out
}

func decodeMembers(members []string) ([][]byte, error) {
	decoded := make([][]byte, len(members))
	for i, text := range members {
		m, err := DecodeMember(text)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		decoded[i] = m
	}
	return decoded, nil
}

// decodeLazily fills decoded at each in-range index not yet decoded. Out-of-range indexes are
// left for population.Breed to report.
func decodeLazily(decoded [][]byte, members []string, indexes ...int) error {
	for _, i := range indexes {
		if i < 0 || i >= len(members) || decoded[i] != nil {
			continue
		}
		m, err := DecodeMember(members[i])
		if err != nil {
			return err
		}
		decoded[i] = m
	}
	return nil
}

func (e *Engine) finish(op string, rows int, start time.Time, err error) {
	elapsed := time.Since(start)
	e.opts.logger.LogCall(op, rows, elapsed, err)
	e.opts.metrics.RecordCall(op, rows, elapsed, err)
}

// fillFrom overwrites rows[from:] with v.
func fillFrom[T any](rows []T, from int, v T) {
	for i := from; i < len(rows); i++ {
		rows[i] = v
	}
}
