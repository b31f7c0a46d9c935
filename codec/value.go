package codec

import (
	"strconv"

	"github.com/pkg/errors"
)

// Kind tags the content of a Value.
type Kind uint8

const (
	// KindError marks a cell that could not be decoded. The zero Value is an error cell.
	KindError Kind = iota
	// KindNA marks a nil column: nothing to decode, and not an error.
	KindNA
	KindUint
	KindFloat
	KindSymbol
)

// Spreadsheet-style renderings of the two sentinels.
const (
	NAText    = "#N/A"
	ErrorText = "#VALUE!"
)

// Value is one decoded cell.
type Value struct {
	Kind   Kind
	Uint   uint64
	Float  float64
	Symbol uint16
	Err    error
}

func Uint(v uint64) Value   { return Value{Kind: KindUint, Uint: v} }
func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }
func Symbol(v uint16) Value { return Value{Kind: KindSymbol, Symbol: v} }
func NA() Value             { return Value{Kind: KindNA} }
func Error(err error) Value { return Value{Kind: KindError, Err: err} }

// IsError reports whether v is an error cell.
func (v Value) IsError() bool {
	return v.Kind == KindError
}

// Float64 returns the numeric content of v. ok is false for NA and error cells.
func (v Value) Float64() (f float64, ok bool) {
	switch v.Kind {
	case KindUint:
		return float64(v.Uint), true
	case KindFloat:
		return v.Float, true
	case KindSymbol:
		return float64(v.Symbol), true
	default:
		return 0, false
	}
}

// Interface returns the cell as a plain Go value: uint64, float64, int, or nil for NA and
// error cells.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindUint:
		return v.Uint
	case KindFloat:
		return v.Float
	case KindSymbol:
		return int(v.Symbol)
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindUint:
		return strconv.FormatUint(v.Uint, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindSymbol:
		return strconv.Itoa(int(v.Symbol))
	case KindNA:
		return NAText
	default:
		return ErrorText
	}
}

// ParseValue reads a cell rendered by Value.String. Integers become KindUint, other numbers
// KindFloat; callers wanting symbols convert with AsSymbol.
func ParseValue(s string) (Value, error) {
	switch s {
	case NAText:
		return NA(), nil
	case ErrorText:
		return Error(ErrInvalidField), nil
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Uint(u), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, errors.Wrapf(err, "parsing cell %q", s)
	}
	return Float(f), nil
}
