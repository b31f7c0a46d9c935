// Package perm maps serial numbers to k-permutations of an n-item universe.
//
// The mapping is a variant of the factorial number system (Lehmer code): the serial is split
// into mixed-radix digits with radices n, n-1, ..., n-k+1 and each digit selects one of the
// symbols not yet chosen. Symbols are picked with a swap-to-front step instead of shifting, so
// decoding is O(k) time and O(n) space. Serials in [0, nPk) map one-to-one onto permutations.
package perm

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

var (
	ErrSymbol   = errors.New("symbol out of range or repeated")
	ErrTooLong  = errors.New("more symbols than the universe holds")
	ErrOverflow = errors.New("serial does not fit in 64 bits")
)

// Decode returns the k symbols of the permutation identified by serial. Symbols are distinct
// values in [0, n). Serials at or beyond nPk wrap; range checks are the caller's business.
// k is clamped to n.
func Decode(serial uint64, n, k uint16) []uint16 {
	if k > n {
		k = n
	}
	if n == 0 || k == 0 {
		return []uint16{}
	}

	remainders := make([]uint64, k)
	radix := uint64(n)
	for i := range remainders {
		remainders[i] = serial % radix
		serial /= radix
		radix--
	}

	indices := make([]uint16, n)
	for i := range indices {
		indices[i] = uint16(i)
	}

	symbols := make([]uint16, k)
	front := uint64(0)
	for i, r := range remainders {
		slot := (front + r) % uint64(n)
		symbols[i] = indices[slot]
		indices[slot] = indices[front]
		front = (front + 1) % uint64(n)
	}
	return symbols
}

// Encode is the inverse of Decode: it returns the serial in [0, nPk) whose decoding is symbols,
// where k is len(symbols).
func Encode(symbols []uint16, n uint16) (uint64, error) {
	k := len(symbols)
	if k > int(n) {
		return 0, errors.Wrapf(ErrTooLong, "%d symbols, n=%d", k, n)
	}

	indices := make([]uint16, n)
	for i := range indices {
		indices[i] = uint16(i)
	}

	// Before step i the unchosen symbols sit in indices[i:], so every digit is < n-i.
	digits := make([]uint64, k)
	for i, sym := range symbols {
		slot := -1
		for j := i; j < int(n); j++ {
			if indices[j] == sym {
				slot = j
				break
			}
		}
		if slot < 0 {
			return 0, errors.Wrapf(ErrSymbol, "symbol %d at position %d", sym, i)
		}
		digits[i] = uint64(slot - i)
		indices[slot] = indices[i]
	}

	var serial uint64
	for i := k - 1; i >= 0; i-- {
		hi, lo := bits.Mul64(serial, uint64(n)-uint64(i))
		if hi != 0 {
			return 0, ErrOverflow
		}
		var carry uint64
		serial, carry = bits.Add64(lo, digits[i], 0)
		if carry != 0 {
			return 0, ErrOverflow
		}
	}
	return serial, nil
}

// Count returns nPk = n!/(n-k)!. ok is false when the count overflows 64 bits.
func Count(n, k uint16) (count uint64, ok bool) {
	if k > n {
		return 0, true
	}
	count = 1
	for i := uint64(0); i < uint64(k); i++ {
		hi, lo := bits.Mul64(count, uint64(n)-i)
		if hi != 0 {
			return 0, false
		}
		count = lo
	}
	return count, true
}

// lnFactorial approximates ln(Γ(x+1)) with Ramanujan's refinement of Stirling's formula. It
// overestimates slightly, so widths derived from it err towards one spare bit.
func lnFactorial(x float64) float64 {
	return x*math.Log(x) - x + math.Log(x*(1+4*x*(1+2*x))+1.0/30)/6 + 0.5*math.Log(math.Pi)
}

// BitWidth returns the number of bits reserved for a serial selecting a k-permutation of n.
// The result saturates at math.MaxUint16 and is non-decreasing in k.
func BitWidth(n, k uint16) uint16 {
	if k > n {
		k = n
	}
	if n == 0 || k == 0 {
		return 0
	}

	var ln float64
	if n == k {
		ln = lnFactorial(float64(n))
	} else {
		ln = lnFactorial(float64(n)) - lnFactorial(float64(n-k))
	}

	w := math.RoundToEven(ln/math.Ln2 + 1)
	if w > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(w)
}
