package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/orthopteroid/ganesha-xl/perm"
	"github.com/pkg/errors"
)

var (
	ErrUnknownOpcode = errors.New("unknown field opcode")
	ErrArgCount      = errors.New("wrong number of field arguments")
	ErrNumber        = errors.New("malformed number")
	ErrRange         = errors.New("field argument out of range")
)

// Kind identifies how a column's bits are interpreted.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNil
	KindBits
	KindFloat
	KindPerm
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBits:
		return "bits"
	case KindFloat:
		return "float"
	case KindPerm:
		return "perm"
	default:
		return "invalid"
	}
}

// Field describes one column of a member.
type Field struct {
	Kind     Kind
	BitWidth uint16
	BitMask  uint64

	FloatOffset float64
	FloatStep   float64
	FloatCount  uint16

	PermN     uint16
	PermK     uint16
	PermGroup uint16
	PermPick  uint16

	// Source is the descriptor the field was parsed from.
	Source string
	// Err is set when Kind is KindInvalid.
	Err error
}

// Reserves reports whether the field's bits count towards the member size. Only the pick-0
// column of a permutation group reserves the group's bits.
func (f Field) Reserves() bool {
	return f.Kind != KindPerm || f.PermPick == 0
}

func (f Field) String() string {
	switch f.Kind {
	case KindNil:
		return "n"
	case KindBits:
		return fmt.Sprintf("b,%d", f.BitWidth)
	case KindFloat:
		return fmt.Sprintf("f,%g,%g,%d", f.FloatOffset, f.FloatStep, f.FloatCount)
	case KindPerm:
		return fmt.Sprintf("p,%d,%d,%d,%d", f.PermN, f.PermK, f.PermGroup, f.PermPick)
	default:
		return fmt.Sprintf("invalid(%q)", f.Source)
	}
}

// arity is the argument count of each opcode.
var arity = map[string]int{"n": 0, "b": 1, "f": 3, "p": 4}

func invalid(src string, err error) Field {
	return Field{Kind: KindInvalid, Source: src, Err: err}
}

func mask(width uint16) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}
	return 1<<width - 1
}

// ParseField parses one column descriptor:
//
//	n                         nil column, no bits
//	b,<bits>                  unsigned integer of up to 64 bits
//	f,<offset>,<step>,<count> offset + (raw mod count) * step
//	p,<n>,<k>,<group>,<pick>  symbol <pick> of a k-permutation of n shared by <group>
//
// Malformed descriptors produce a KindInvalid field carrying the reason.
func ParseField(src string) Field {
	tokens := strings.Split(src, ",")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}

	op, args := tokens[0], tokens[1:]
	n, ok := arity[op]
	if !ok {
		return invalid(src, errors.Wrapf(ErrUnknownOpcode, "%q", src))
	}
	if len(args) != n {
		return invalid(src, errors.Wrapf(ErrArgCount, "%q takes %d, got %d", op, n, len(args)))
	}

	nums := make([]float64, len(args))
	for i, arg := range args {
		v, err := parseNumber(arg)
		if err != nil {
			return invalid(src, errors.Wrapf(err, "argument %d of %q", i+1, src))
		}
		nums[i] = v
	}

	f := Field{Source: src}
	var err error
	switch op {
	case "n":
		f.Kind = KindNil

	case "b":
		if f.BitWidth, err = toUint16(nums[0]); err != nil {
			return invalid(src, err)
		}
		if f.BitWidth > 64 {
			return invalid(src, errors.Wrapf(ErrRange, "%d bits exceeds 64", f.BitWidth))
		}
		f.Kind = KindBits

	case "f":
		f.FloatOffset, f.FloatStep = nums[0], nums[1]
		if f.FloatCount, err = toUint16(nums[2]); err != nil {
			return invalid(src, err)
		}
		if f.FloatCount == 0 {
			return invalid(src, errors.Wrap(ErrRange, "float count must be positive"))
		}
		// Nearest, not ceiling: a non power of two count can alias after the modulo.
		f.BitWidth = uint16(math.RoundToEven(math.Log2(float64(f.FloatCount))))
		f.Kind = KindFloat

	case "p":
		dst := []*uint16{&f.PermN, &f.PermK, &f.PermGroup, &f.PermPick}
		for i, d := range dst {
			if *d, err = toUint16(nums[i]); err != nil {
				return invalid(src, err)
			}
		}
		if f.PermK > f.PermN {
			return invalid(src, errors.Wrapf(ErrRange, "k=%d exceeds n=%d", f.PermK, f.PermN))
		}
		// Widths over 64 still reserve their bits; the reader yields serial 0 for them.
		f.BitWidth = perm.BitWidth(f.PermN, f.PermK)
		f.Kind = KindPerm
	}

	f.BitMask = mask(f.BitWidth)
	return f
}

// parseNumber accepts an optional leading '-', decimal digits and an optional fractional part.
func parseNumber(s string) (float64, error) {
	body := strings.TrimPrefix(s, "-")
	digits, dots := 0, 0
	for _, c := range body {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return 0, errors.Wrapf(ErrNumber, "%q", s)
		}
	}
	if digits == 0 || dots > 1 {
		return 0, errors.Wrapf(ErrNumber, "%q", s)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrNumber, "%q", s)
	}
	return v, nil
}

func toUint16(v float64) (uint16, error) {
	r := math.RoundToEven(math.Abs(v))
	if r > math.MaxUint16 {
		return 0, errors.Wrapf(ErrRange, "%g exceeds %d", v, math.MaxUint16)
	}
	return uint16(r), nil
}
