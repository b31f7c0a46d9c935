// Package codec extracts typed values from bit-packed members according to a schema, and
// writes values back into that layout.
//
// Fields are laid out in column order. A permutation group's bits sit at the first column of
// the group; every other column of the group reads its pick from the same decoded permutation.
// Because the bit cursor only moves forward, a member's columns must be extracted once each, in
// ascending order, to line up with the layout.
package codec

import (
	"math"

	"github.com/orthopteroid/ganesha-xl/bitstream"
	"github.com/orthopteroid/ganesha-xl/perm"
	"github.com/orthopteroid/ganesha-xl/schema"
	"github.com/pkg/errors"
)

var (
	ErrInvalidField    = errors.New("invalid field descriptor")
	ErrPickRange       = errors.New("permutation pick out of range")
	ErrColumn          = errors.New("column out of range")
	ErrValueKind       = errors.New("value kind does not match field")
	ErrUnrepresentable = errors.New("value not representable by field")
	ErrShape           = errors.New("value count does not match schema")
	ErrTruncated       = errors.New("encoded bits do not fit the member size")
)

// Extractor decodes the columns of one member at a time. It is not safe for concurrent use;
// give each goroutine its own.
type Extractor struct {
	schema *schema.Schema
	r      bitstream.Reader
	groups map[uint16][]uint16
}

func NewExtractor(s *schema.Schema) *Extractor {
	return &Extractor{
		schema: s,
		groups: make(map[uint16][]uint16, s.Groups()),
	}
}

// Reset starts decoding member from its first bit and forgets decoded permutations.
func (e *Extractor) Reset(member []byte) {
	e.r.Reset(member)
	for g := range e.groups {
		delete(e.groups, g)
	}
}

// Extract decodes column col of the current member.
func (e *Extractor) Extract(col int) Value {
	if col < 0 || col >= e.schema.Len() {
		return Error(errors.Wrapf(ErrColumn, "column %d of %d", col, e.schema.Len()))
	}

	f := e.schema.Field(col)
	switch f.Kind {
	case schema.KindNil:
		return NA()

	case schema.KindBits:
		return Uint(e.r.Extract(uint(f.BitWidth)))

	case schema.KindFloat:
		raw := e.r.Extract(uint(f.BitWidth))
		return Float(f.FloatOffset + float64(raw%uint64(f.FloatCount))*f.FloatStep)

	case schema.KindPerm:
		symbols, ok := e.groups[f.PermGroup]
		if !ok {
			symbols = perm.Decode(e.r.Extract(uint(f.BitWidth)), f.PermN, f.PermK)
			e.groups[f.PermGroup] = symbols
		}
		if int(f.PermPick) >= len(symbols) {
			return Error(errors.Wrapf(ErrPickRange, "pick %d of %dP%d", f.PermPick, f.PermN, f.PermK))
		}
		return Symbol(symbols[f.PermPick])

	default:
		return Error(errors.Wrapf(ErrInvalidField, "column %d: %v", col, f.Err))
	}
}

// DecodeRow extracts every column of member in order.
func DecodeRow(s *schema.Schema, member []byte) []Value {
	e := NewExtractor(s)
	e.Reset(member)
	return e.decodeRow()
}

func (e *Extractor) decodeRow() []Value {
	values := make([]Value, e.schema.Len())
	for col := range values {
		values[col] = e.Extract(col)
	}
	return values
}

// DecodeRows decodes every member with one reused Extractor.
func DecodeRows(s *schema.Schema, members [][]byte) [][]Value {
	e := NewExtractor(s)
	rows := make([][]Value, len(members))
	for i, m := range members {
		e.Reset(m)
		rows[i] = e.decodeRow()
	}
	return rows
}

// EncodeRow writes one value per column into a member of s.ByteSize() bytes, so that DecodeRow
// returns the same values. Nil and invalid columns ignore their value. Permutation groups take
// their symbols from the group's columns; positions no column picks are filled with the lowest
// unused symbols. A group wider than 64 bits always decodes as serial 0, so only that
// arrangement encodes.
func EncodeRow(s *schema.Schema, values []Value) ([]byte, error) {
	if len(values) != s.Len() {
		return nil, errors.Wrapf(ErrShape, "%d values for %d columns", len(values), s.Len())
	}

	w := bitstream.NewWriter(s.ByteSize())
	written := make(map[uint16]bool, s.Groups())
	for col, v := range values {
		f := s.Field(col)
		switch f.Kind {
		case schema.KindBits:
			if v.Kind != KindUint {
				return nil, errors.Wrapf(ErrValueKind, "column %d wants an integer", col)
			}
			if v.Uint&^f.BitMask != 0 {
				return nil, errors.Wrapf(ErrUnrepresentable, "column %d: %d exceeds %d bits", col, v.Uint, f.BitWidth)
			}
			w.Append(v.Uint, uint(f.BitWidth))

		case schema.KindFloat:
			idx, err := floatIndex(f, v)
			if err != nil {
				return nil, errors.Wrapf(err, "column %d", col)
			}
			w.Append(idx, uint(f.BitWidth))

		case schema.KindPerm:
			if written[f.PermGroup] {
				continue
			}
			serial, err := groupSerial(s, values, f)
			if err != nil {
				return nil, errors.Wrapf(err, "column %d", col)
			}
			if f.BitWidth > bitstream.MaxWidth && serial != 0 {
				return nil, errors.Wrapf(ErrUnrepresentable, "column %d: %dP%d only decodes serial 0", col, f.PermN, f.PermK)
			}
			w.Append(serial, uint(f.BitWidth))
			written[f.PermGroup] = true
		}
	}

	buf := w.Bytes()
	size := s.ByteSize()
	for _, b := range buf[size:] {
		if b != 0 {
			return nil, errors.Wrapf(ErrTruncated, "%d bits in %d bytes", w.Pos(), size)
		}
	}
	return buf[:size], nil
}

func floatIndex(f schema.Field, v Value) (uint64, error) {
	x, ok := v.Float64()
	if !ok {
		return 0, errors.Wrap(ErrValueKind, "float field wants a number")
	}

	var idx float64
	if f.FloatStep != 0 {
		idx = math.Round((x - f.FloatOffset) / f.FloatStep)
	} else if x != f.FloatOffset {
		return 0, errors.Wrapf(ErrUnrepresentable, "%g with zero step", x)
	}
	if idx < 0 || idx >= float64(f.FloatCount) || uint64(idx)&^f.BitMask != 0 {
		return 0, errors.Wrapf(ErrUnrepresentable, "%g is step %g of %d in %d bits", x, idx, f.FloatCount, f.BitWidth)
	}
	return uint64(idx), nil
}

// groupSerial gathers the symbols the columns of f's group pick and encodes them.
func groupSerial(s *schema.Schema, values []Value, f schema.Field) (uint64, error) {
	symbols := make([]uint16, f.PermK)
	set := make([]bool, f.PermK)
	used := make(map[uint16]bool, f.PermK)

	for col, v := range values {
		g := s.Field(col)
		if g.Kind != schema.KindPerm || g.PermGroup != f.PermGroup || g.PermPick >= f.PermK {
			continue
		}
		sym, err := AsSymbol(v)
		if err != nil {
			return 0, err
		}
		if set[g.PermPick] {
			if symbols[g.PermPick] != sym {
				return 0, errors.Wrapf(ErrUnrepresentable, "pick %d given twice", g.PermPick)
			}
			continue
		}
		if used[sym] || sym >= f.PermN {
			return 0, errors.Wrapf(perm.ErrSymbol, "symbol %d in %dP%d", sym, f.PermN, f.PermK)
		}
		symbols[g.PermPick], set[g.PermPick] = sym, true
		used[sym] = true
	}

	next := uint16(0)
	for i := range symbols {
		if set[i] {
			continue
		}
		for used[next] {
			next++
		}
		symbols[i] = next
		used[next] = true
	}

	return perm.Encode(symbols, f.PermN)
}

// AsSymbol converts a symbol or non-negative integral cell to a permutation symbol.
func AsSymbol(v Value) (uint16, error) {
	switch v.Kind {
	case KindSymbol:
		return v.Symbol, nil
	case KindUint:
		if v.Uint <= math.MaxUint16 {
			return uint16(v.Uint), nil
		}
	case KindFloat:
		if v.Float >= 0 && v.Float <= math.MaxUint16 && v.Float == math.Trunc(v.Float) {
			return uint16(v.Float), nil
		}
	}
	return 0, errors.Wrapf(ErrValueKind, "%v is not a permutation symbol", v)
}
