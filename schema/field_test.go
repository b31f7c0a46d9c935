package schema

import (
	"math"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gstruct"
	"github.com/pkg/errors"
)

var _ = Describe("ParseField", func() {
	DescribeTable("valid descriptors",
		func(src string, expected Fields) {
			Expect(ParseField(src)).To(MatchFields(IgnoreExtras, expected))
		},

		Entry("nil", "n", Fields{
			"Kind":     Equal(KindNil),
			"BitWidth": BeZero(),
			"BitMask":  BeZero(),
		}),
		Entry("raw bits", "b,4", Fields{
			"Kind":     Equal(KindBits),
			"BitWidth": Equal(uint16(4)),
			"BitMask":  Equal(uint64(0xF)),
		}),
		Entry("64 raw bits", "b,64", Fields{
			"BitWidth": Equal(uint16(64)),
			"BitMask":  Equal(uint64(math.MaxUint64)),
		}),
		Entry("whitespace around tokens", " b , 12 ", Fields{
			"Kind":     Equal(KindBits),
			"BitWidth": Equal(uint16(12)),
		}),
		Entry("float", "f,-1.5,0.25,8", Fields{
			"Kind":        Equal(KindFloat),
			"FloatOffset": Equal(-1.5),
			"FloatStep":   Equal(0.25),
			"FloatCount":  Equal(uint16(8)),
			"BitWidth":    Equal(uint16(3)),
		}),
		Entry("float count rounds to the nearest width", "f,0,1,11", Fields{
			"BitWidth": Equal(uint16(3)),
		}),
		Entry("float count of one needs no bits", "f,2,1,1", Fields{
			"BitWidth": BeZero(),
		}),
		Entry("integer arguments take the magnitude", "b,-7", Fields{
			"BitWidth": Equal(uint16(7)),
		}),
		Entry("permutation representative", "p,5,2,0,0", Fields{
			"Kind":      Equal(KindPerm),
			"PermN":     Equal(uint16(5)),
			"PermK":     Equal(uint16(2)),
			"PermGroup": BeZero(),
			"PermPick":  BeZero(),
			"BitWidth":  Equal(uint16(5)),
		}),
		Entry("permutation wider than 64 bits keeps its width", "p,21,21,0,0", Fields{
			"Kind":     Equal(KindPerm),
			"BitWidth": Equal(uint16(66)),
			"BitMask":  Equal(uint64(math.MaxUint64)),
		}),
		Entry("permutation pick beyond k parses", "p,5,2,3,4", Fields{
			"Kind":      Equal(KindPerm),
			"PermGroup": Equal(uint16(3)),
			"PermPick":  Equal(uint16(4)),
		}),
	)

	DescribeTable("invalid descriptors",
		func(src string, expectedErr error) {
			f := ParseField(src)
			Expect(f.Kind).To(Equal(KindInvalid))
			Expect(f.Source).To(Equal(src))
			Expect(errors.Cause(f.Err)).To(Equal(expectedErr))
		},

		Entry("empty", "", ErrUnknownOpcode),
		Entry("unknown opcode", "x,1", ErrUnknownOpcode),
		Entry("opcode is a whole token", "bits,4", ErrUnknownOpcode),
		Entry("nil with arguments", "n,1", ErrArgCount),
		Entry("bits without width", "b", ErrArgCount),
		Entry("float missing count", "f,0,1", ErrArgCount),
		Entry("permutation missing pick", "p,5,2,0", ErrArgCount),
		Entry("letters in a number", "b,4a", ErrNumber),
		Entry("two decimal points", "f,0.1.2,1,4", ErrNumber),
		Entry("exponent", "f,1e3,1,4", ErrNumber),
		Entry("empty argument", "b,", ErrNumber),
		Entry("too wide", "b,65", ErrRange),
		Entry("beyond uint16", "f,0,1,70000", ErrRange),
		Entry("zero float count", "f,0,1,0", ErrRange),
		Entry("k exceeds n", "p,3,4,0,0", ErrRange),
	)

	It("formats valid fields back into descriptors", func() {
		for _, src := range []string{"n", "b,4", "f,-1.5,0.25,8", "p,5,2,0,1"} {
			Expect(ParseField(src).String()).To(Equal(src))
		}
	})
})
