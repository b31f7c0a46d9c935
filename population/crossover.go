package population

import (
	"github.com/pkg/errors"
)

var (
	ErrLengthMismatch = errors.New("parents differ in length")
	ErrShapeMismatch  = errors.New("members and fitness differ in length")
	ErrIndexRange     = errors.New("member index out of range")
)

// DefaultMutationDenominator gives a 1-in-10 mutation chance per crossover.
const DefaultMutationDenominator = 10

// Splice records the draws of one crossover.
type Splice struct {
	// Swap makes a the prefix parent.
	Swap bool
	// Bit is the splice point in [0, 8*len).
	Bit int
	// Mutate is set when the mutation draw came up 1.
	Mutate bool
	// MutationBit is the bit flipped when Mutate is set.
	MutationBit int
}

// DrawSplice draws a Splice for members of size bytes, in the order swap, splice point,
// mutation roll, mutation bit.
func DrawSplice(src Source, size int, denom uint32) Splice {
	if denom < 1 {
		denom = 1
	}

	var sp Splice
	if size <= 0 {
		return sp
	}
	batch(src, func(r Source) {
		sp.Swap = r.Bit()
		sp.Bit = r.Intn(8 * size)
		sp.Mutate = r.Intn(int(denom))+1 == 1
		sp.MutationBit = r.Intn(8 * size)
	})
	return sp
}

// Cross breeds a and b into a new member.
func Cross(src Source, a, b []byte, denom uint32) ([]byte, Splice, error) {
	if len(a) != len(b) {
		return nil, Splice{}, errors.Wrapf(ErrLengthMismatch, "%d and %d bytes", len(a), len(b))
	}

	sp := DrawSplice(src, len(a), denom)
	child, err := CrossAt(a, b, sp)
	return child, sp, err
}

// CrossAt applies a drawn Splice: bytes of the prefix parent up to the splice byte, the splice
// byte merged bitwise (prefix parent below the splice bit), then bytes of the suffix parent.
func CrossAt(a, b []byte, sp Splice) ([]byte, error) {
	if len(a) != len(b) {
		return nil, errors.Wrapf(ErrLengthMismatch, "%d and %d bytes", len(a), len(b))
	}

	child := make([]byte, len(a))
	if len(a) == 0 {
		return child, nil
	}

	nbits := 8 * len(a)
	if sp.Bit < 0 || sp.Bit >= nbits {
		return nil, errors.Wrapf(ErrIndexRange, "splice bit %d of %d", sp.Bit, nbits)
	}
	if sp.Mutate && (sp.MutationBit < 0 || sp.MutationBit >= nbits) {
		return nil, errors.Wrapf(ErrIndexRange, "mutation bit %d of %d", sp.MutationBit, nbits)
	}

	prefix, suffix := b, a
	if sp.Swap {
		prefix, suffix = a, b
	}

	at := sp.Bit >> 3
	copy(child[:at], prefix[:at])
	mask := byte(1)<<(uint(sp.Bit)&7) - 1
	child[at] = prefix[at]&mask | suffix[at]&^mask
	copy(child[at+1:], suffix[at+1:])

	if sp.Mutate {
		child[sp.MutationBit>>3] ^= 1 << (uint(sp.MutationBit) & 7)
	}
	return child, nil
}

// Pair names the two parents of one offspring by row index.
type Pair struct {
	First, Second int
}

// Child is the result of breeding one Pair.
type Child struct {
	Member []byte
	Splice Splice
	// Copied is set when both parents were the same row and the member was copied verbatim.
	Copied bool
}

// Breed produces the offspring of p. A pair naming the same row twice copies that member
// without drawing.
func Breed(src Source, members [][]byte, p Pair, denom uint32) (Child, error) {
	for _, i := range [2]int{p.First, p.Second} {
		if i < 0 || i >= len(members) {
			return Child{}, errors.Wrapf(ErrIndexRange, "row %d of %d", i, len(members))
		}
	}

	if p.First == p.Second {
		m := make([]byte, len(members[p.First]))
		copy(m, members[p.First])
		return Child{Member: m, Copied: true}, nil
	}

	m, sp, err := Cross(src, members[p.First], members[p.Second], denom)
	if err != nil {
		return Child{}, errors.Wrapf(err, "rows %d and %d", p.First, p.Second)
	}
	return Child{Member: m, Splice: sp}, nil
}
