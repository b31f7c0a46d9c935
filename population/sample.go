package population

import (
	"math"

	"github.com/pkg/errors"
)

// DefaultAmplifier scales the squared relative fitness into roulette slots; the fittest unique
// member gets 20.
const DefaultAmplifier = 20

type sampleOptions struct {
	amplifier float64
	hasher    Hasher
}

// SampleOption configures Sample and Select.
type SampleOption func(*sampleOptions)

// WithAmplifier sets the roulette slot count of the fittest member.
func WithAmplifier(a float64) SampleOption {
	return func(o *sampleOptions) {
		o.amplifier = a
	}
}

// WithHasher sets the digest used to find duplicate members.
func WithHasher(h Hasher) SampleOption {
	return func(o *sampleOptions) {
		if h != nil {
			o.hasher = h
		}
	}
}

// Selection is the outcome of one selection round.
type Selection struct {
	// Pairs holds the parents of each output row.
	Pairs []Pair
	// Best and Second are the rows with the two largest usable fitness values. Second equals Best
	// when no other row has positive usable fitness.
	Best, Second int
	// Slots is the number of times each row was entered in the roulette pool.
	Slots []int
	// Uniform is set when no row was selectable and the pairs were drawn uniformly.
	Uniform bool
}

type dupKey struct {
	hash    uint64
	fitness float64
}

// Sample draws one parent pair per row.
func Sample(src Source, members [][]byte, fitness []float64, opts ...SampleOption) ([]Pair, error) {
	sel, err := Select(src, members, fitness, opts...)
	if err != nil {
		return nil, err
	}
	return sel.Pairs, nil
}

// Select runs fitness-proportional selection over a population. Members repeating an earlier
// member's bytes and fitness are not selectable. The first rows/6 pairs take the best member as
// first parent and the next rows/6 the second best; row 0 and row rows/6 breed with themselves.
func Select(src Source, members [][]byte, fitness []float64, opts ...SampleOption) (Selection, error) {
	o := sampleOptions{amplifier: DefaultAmplifier, hasher: DefaultHasher}
	for _, opt := range opts {
		opt(&o)
	}

	rows := len(fitness)
	if len(members) != rows {
		return Selection{}, errors.Wrapf(ErrShapeMismatch, "%d members, %d fitness values", len(members), rows)
	}

	sel := Selection{Pairs: make([]Pair, rows), Slots: make([]int, rows)}
	if rows == 0 {
		return sel, nil
	}

	usable := make([]float64, rows)
	seen := make(map[dupKey]struct{}, rows)
	for i, f := range fitness {
		u := math.Abs(f)
		if math.IsNaN(u) || math.IsInf(u, 0) {
			u = 0
		}
		key := dupKey{hash: o.hasher(members[i]), fitness: u}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		usable[i] = u
	}

	var max1, max2 float64
	for i, u := range usable {
		switch {
		case u > max1:
			max2, sel.Second = max1, sel.Best
			max1, sel.Best = u, i
		case u > max2:
			max2, sel.Second = u, i
		}
	}
	if max2 == 0 {
		sel.Second = sel.Best
	}

	if max1 == 0 {
		return uniform(src, sel), nil
	}

	var pool []int
	for i, u := range usable {
		if u == 0 {
			continue
		}
		r := u / max1
		n := int(math.RoundToEven(o.amplifier * r * r))
		sel.Slots[i] = n
		for ; n > 0; n-- {
			pool = append(pool, i)
		}
	}
	if len(pool) == 0 {
		return uniform(src, sel), nil
	}

	batch(src, func(r Source) {
		for i := range sel.Pairs {
			sel.Pairs[i] = Pair{First: pool[r.Intn(len(pool))], Second: pool[r.Intn(len(pool))]}
		}
	})

	sixth := rows / 6
	for i := 0; i < sixth; i++ {
		sel.Pairs[i].First = sel.Best
		sel.Pairs[sixth+i].First = sel.Second
	}
	sel.Pairs[0].Second = sel.Pairs[0].First
	sel.Pairs[sixth].Second = sel.Pairs[sixth].First
	return sel, nil
}

func uniform(src Source, sel Selection) Selection {
	rows := len(sel.Pairs)
	batch(src, func(r Source) {
		for i := range sel.Pairs {
			sel.Pairs[i] = Pair{First: r.Intn(rows), Second: r.Intn(rows)}
		}
	})
	sel.Uniform = true
	return sel
}
