package perm

import (
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

func Test(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Permutations")
}

var _ = Describe("Decode", func() {
	DescribeTable("known serials",
		func(serial uint64, n, k int, expected []uint16) {
			Expect(Decode(serial, uint16(n), uint16(k))).To(Equal(expected))
		},

		Entry("serial 0 is the identity prefix", uint64(0), 5, 2, []uint16{0, 1}),
		Entry("first digit selects", uint64(3), 5, 2, []uint16{3, 1}),
		Entry("second digit selects among the rest", uint64(5), 5, 2, []uint16{0, 2}),
		Entry("swap-to-front moves the displaced symbol", uint64(1), 5, 2, []uint16{1, 0}),
		Entry("second digit skips the chosen symbol", uint64(1+5*3), 5, 2, []uint16{1, 4}),
		Entry("last serial of 3P3", uint64(5), 3, 3, []uint16{2, 0, 1}),
		Entry("wraps beyond nPk", uint64(20), 5, 2, []uint16{0, 1}),
		Entry("k clamped to n", uint64(0), 2, 4, []uint16{0, 1}),
		Entry("empty when k is 0", uint64(7), 5, 0, []uint16{}),
		Entry("empty when n is 0", uint64(7), 0, 0, []uint16{}),
	)

	It("yields distinct, in-range symbols and distinct permutations for every serial below nPk", func() {
		for _, nk := range [][2]uint16{{1, 1}, {4, 4}, {5, 2}, {6, 3}, {7, 7}} {
			n, k := nk[0], nk[1]
			count, ok := Count(n, k)
			Expect(ok).To(BeTrue())

			seen := make(map[string]uint64, count)
			for s := uint64(0); s < count; s++ {
				symbols := Decode(s, n, k)
				Expect(symbols).To(HaveLen(int(k)))

				used := make(map[uint16]bool, k)
				for _, sym := range symbols {
					Expect(sym).To(BeNumerically("<", n))
					Expect(used).NotTo(HaveKey(sym))
					used[sym] = true
				}

				key := fmt.Sprint(symbols)
				Expect(seen).NotTo(HaveKey(key), "serial %d repeats serial %d", s, seen[key])
				seen[key] = s
			}
		}
	})
})

var _ = Describe("Encode", func() {
	It("inverts Decode for every serial below nPk", func() {
		for _, nk := range [][2]uint16{{5, 2}, {6, 6}, {9, 3}} {
			n, k := nk[0], nk[1]
			count, _ := Count(n, k)
			for s := uint64(0); s < count; s++ {
				serial, err := Encode(Decode(s, n, k), n)
				Expect(err).NotTo(HaveOccurred())
				Expect(serial).To(Equal(s))
			}
		}
	})

	It("round-trips a large permutation", func() {
		serial := uint64(1234567890123456789)
		symbols := Decode(serial, 20, 20)
		Expect(Encode(symbols, 20)).To(Equal(serial))
	})

	DescribeTable("rejects",
		func(symbols []uint16, n int, expectedErr error) {
			_, err := Encode(symbols, uint16(n))
			Expect(errors.Cause(err)).To(Equal(expectedErr))
		},

		Entry("repeated symbol", []uint16{1, 1}, 5, ErrSymbol),
		Entry("symbol outside the universe", []uint16{5}, 5, ErrSymbol),
		Entry("too many symbols", []uint16{0, 1, 2}, 2, ErrTooLong),
	)
})

var _ = Describe("Count", func() {
	DescribeTable("nPk",
		func(n, k int, expected uint64, expectedOk bool) {
			count, ok := Count(uint16(n), uint16(k))
			Expect(ok).To(Equal(expectedOk))
			Expect(count).To(Equal(expected))
		},

		Entry("5P2", 5, 2, uint64(20), true),
		Entry("5P0", 5, 0, uint64(1), true),
		Entry("20P20", 20, 20, uint64(2432902008176640000), true),
		Entry("21P21 overflows", 21, 21, uint64(0), false),
	)
})

var _ = Describe("BitWidth", func() {
	DescribeTable("known widths",
		func(n, k int, expected int) {
			Expect(BitWidth(uint16(n), uint16(k))).To(Equal(uint16(expected)))
		},

		Entry("n = 0", 0, 3, 0),
		Entry("k = 0", 9, 0, 0),
		Entry("1P1", 1, 1, 1),
		Entry("2P1", 2, 1, 2),
		Entry("5P2", 5, 2, 5),
		Entry("5P5", 5, 5, 8),
		Entry("8P8", 8, 8, 16),
		Entry("10P3", 10, 3, 10),
		Entry("20P20", 20, 20, 62),
		Entry("21P21", 21, 21, 66),
		Entry("26P13", 26, 13, 57),
	)

	It("reserves enough bits for every serial of small permutations", func() {
		for n := uint16(1); n <= 20; n++ {
			for k := uint16(1); k <= n; k++ {
				count, ok := Count(n, k)
				Expect(ok).To(BeTrue())
				w := BitWidth(n, k)
				if w < 64 {
					Expect(count-1).To(BeNumerically("<", uint64(1)<<w), "%dP%d", n, k)
				}
			}
		}
	})

	It("is non-decreasing in k", func() {
		for _, n := range []uint16{1, 2, 3, 7, 20, 64, 300, 5000} {
			prev := uint16(0)
			for k := uint16(0); k <= n; k++ {
				w := BitWidth(n, k)
				Expect(w).To(BeNumerically(">=", prev), "n=%d k=%d", n, k)
				prev = w
			}
		}
	})

	It("saturates instead of overflowing", func() {
		Expect(BitWidth(65535, 65535)).To(Equal(uint16(65535)))
	})
})

func BenchmarkDecode(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Decode(uint64(i), 20, 10)
	}
}
