package ganesha

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/orthopteroid/ganesha-xl/codec"
	"github.com/orthopteroid/ganesha-xl/perm"
	"github.com/orthopteroid/ganesha-xl/population"
	"github.com/pkg/errors"
)

var mixedRow = []string{"b,4", "f,0,1,8", "p,5,2,0,0", "p,5,2,0,1"}

// exploding panics on every draw.
type exploding struct{}

func (exploding) Uint64() uint64 { panic("no randomness") }
func (exploding) Bit() bool      { panic("no randomness") }
func (exploding) Intn(int) int   { panic("no randomness") }
func (exploding) Read([]byte)    { panic("no randomness") }

var _ = Describe("Engine", func() {
	var (
		engine  *Engine
		metrics *BasicMetricsCollector
	)

	BeforeEach(func() {
		var err error
		metrics = &BasicMetricsCollector{}
		engine, err = New(
			WithSource(population.NewSeededSource(11)),
			WithMetrics(metrics),
		)
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a non-positive cache size", func() {
		_, err := New(WithCacheSize(0))
		Expect(err).To(HaveOccurred())
	})

	It("exposes the permutation bit width", func() {
		Expect(engine.PermBits(5, 2)).To(Equal(perm.BitWidth(5, 2)))
		Expect(engine.PermBits(0, 3)).To(BeZero())
	})

	It("parses a format row once while it is unchanged", func() {
		first := engine.Schema(mixedRow)
		Expect(engine.Schema(mixedRow)).To(BeIdenticalTo(first))
		Expect(metrics.SchemaMisses.Load()).To(Equal(int64(1)))
		Expect(metrics.SchemaHits.Load()).To(Equal(int64(1)))

		Expect(engine.Schema([]string{"b,8"})).NotTo(BeIdenticalTo(first))
		Expect(metrics.SchemaMisses.Load()).To(Equal(int64(2)))
	})

	Describe("Random", func() {
		It("returns members sized to the format", func() {
			out := engine.Random(mixedRow, 5)
			Expect(out).To(HaveLen(5))

			size := engine.Schema(mixedRow).ByteSize()
			for _, enc := range out {
				Expect(enc.Err).NotTo(HaveOccurred())
				member, err := DecodeMember(enc.Text)
				Expect(err).NotTo(HaveOccurred())
				Expect(member).To(HaveLen(size))
			}
			Expect(metrics.Generated.Load()).To(Equal(int64(5)))
		})

		It("returns nothing for a negative count", func() {
			Expect(engine.Random(mixedRow, -1)).To(BeEmpty())
		})

		It("fills every row when the source fails", func() {
			e, err := New(WithSource(exploding{}), WithMetrics(metrics))
			Expect(err).NotTo(HaveOccurred())

			out := e.Random(mixedRow, 3)
			Expect(out).To(HaveLen(3))
			for _, enc := range out {
				Expect(errors.Is(enc.Err, ErrPanic)).To(BeTrue())
			}
			Expect(metrics.CallErrors.Load()).To(Equal(int64(1)))
		})
	})

	Describe("Parse", func() {
		It("decodes every member", func() {
			zero := EncodeMember(make([]byte, 2))
			out := engine.Parse(mixedRow, []string{zero, zero})

			Expect(out).To(HaveLen(2))
			for _, row := range out {
				Expect(row).To(Equal([]codec.Value{codec.Uint(0), codec.Float(0), codec.Symbol(0), codec.Symbol(1)}))
			}
		})

		It("fills from the first row whose text is not a member", func() {
			good := EncodeMember([]byte{7})
			out := engine.Parse([]string{"b,8", "n"}, []string{good, "not base64!", good})

			Expect(out).To(HaveLen(3))
			Expect(out[0]).To(Equal([]codec.Value{codec.Uint(7), codec.NA()}))
			for _, row := range out[1:] {
				Expect(row).To(HaveLen(2))
				Expect(row[0].IsError()).To(BeTrue())
				Expect(row[1].IsError()).To(BeTrue())
			}
			Expect(metrics.CallErrors.Load()).To(Equal(int64(1)))
		})

		It("reports invalid columns per cell", func() {
			out := engine.Parse([]string{"x", "b,8"}, []string{EncodeMember([]byte{9})})
			Expect(out[0][0].IsError()).To(BeTrue())
			Expect(out[0][1]).To(Equal(codec.Uint(9)))
		})
	})

	Describe("Cross", func() {
		a := EncodeMember([]byte{0x0F, 0xF0})
		b := EncodeMember([]byte{0xAA, 0x55})

		It("copies self-paired members verbatim", func() {
			out := engine.Cross([]string{a, b}, []population.Pair{{First: 1, Second: 1}, {First: 0, Second: 0}}, 1)

			Expect(out).To(Equal([]Encoded{{Text: b}, {Text: a}}))
			Expect(metrics.Copies.Load()).To(Equal(int64(2)))
		})

		It("breeds members of the parents' length", func() {
			out := engine.Cross([]string{a, b}, []population.Pair{{First: 0, Second: 1}, {First: 1, Second: 0}}, 0)

			for _, enc := range out {
				Expect(enc.Err).NotTo(HaveOccurred())
				member, err := DecodeMember(enc.Text)
				Expect(err).NotTo(HaveOccurred())
				Expect(member).To(HaveLen(2))
			}
			Expect(metrics.Crossovers.Load()).To(Equal(int64(2)))
		})

		It("fills from the first pair of mismatched parents", func() {
			short := EncodeMember([]byte{0x01})
			pairs := []population.Pair{{First: 0, Second: 0}, {First: 0, Second: 1}, {First: 1, Second: 1}}
			out := engine.Cross([]string{a, short}, pairs, 10)

			Expect(out[0]).To(Equal(Encoded{Text: a}))
			Expect(errors.Is(out[1].Err, population.ErrLengthMismatch)).To(BeTrue())
			Expect(errors.Is(out[2].Err, population.ErrLengthMismatch)).To(BeTrue())
			Expect(out[2].Text).To(BeEmpty())
		})

		It("fills from a pair outside the population", func() {
			out := engine.Cross([]string{a}, []population.Pair{{First: 0, Second: 0}, {First: 0, Second: 3}}, 10)

			Expect(out[0].Err).NotTo(HaveOccurred())
			Expect(errors.Is(out[1].Err, population.ErrIndexRange)).To(BeTrue())
		})

		It("fills from the first pair that crosses a member that is not valid text", func() {
			pairs := []population.Pair{{First: 0, Second: 0}, {First: 2, Second: 2}, {First: 0, Second: 2}, {First: 0, Second: 1}}
			out := engine.Cross([]string{a, b, "%%%"}, pairs, 10)

			Expect(out[0]).To(Equal(Encoded{Text: a}))
			Expect(out[1]).To(Equal(Encoded{Text: "%%%"}))
			Expect(out[2].Err).To(HaveOccurred())
			Expect(out[3].Err).To(HaveOccurred())
			Expect(out[3].Text).To(BeEmpty())
		})

		It("ignores a bad member no pair uses", func() {
			out := engine.Cross([]string{a, b, "%%%"}, []population.Pair{{First: 0, Second: 1}, {First: 1, Second: 0}}, 10)

			for _, enc := range out {
				Expect(enc.Err).NotTo(HaveOccurred())
			}
		})

		It("keeps rows produced before a panic", func() {
			e, err := New(WithSource(exploding{}))
			Expect(err).NotTo(HaveOccurred())

			pairs := []population.Pair{{First: 0, Second: 0}, {First: 0, Second: 1}, {First: 1, Second: 1}}
			out := e.Cross([]string{a, b}, pairs, 10)

			Expect(out[0]).To(Equal(Encoded{Text: a}))
			Expect(errors.Is(out[1].Err, ErrPanic)).To(BeTrue())
			Expect(errors.Is(out[2].Err, ErrPanic)).To(BeTrue())
		})
	})

	Describe("Sample", func() {
		members := []string{
			EncodeMember([]byte{1}),
			EncodeMember([]byte{2}),
			EncodeMember([]byte{3}),
			EncodeMember([]byte{4}),
			EncodeMember([]byte{5}),
			EncodeMember([]byte{6}),
		}

		It("returns one pair per member in range", func() {
			out := engine.Sample(members, []float64{1, 2, 3, 4, 5, 6})

			Expect(out).To(HaveLen(6))
			for _, p := range out {
				Expect(p.Err).NotTo(HaveOccurred())
				Expect(p.First).To(BeNumerically(">=", 0))
				Expect(p.First).To(BeNumerically("<", 6))
				Expect(p.Second).To(BeNumerically(">=", 0))
				Expect(p.Second).To(BeNumerically("<", 6))
			}
			Expect(out[0].First).To(Equal(5))
			Expect(out[0].Second).To(Equal(5))
			Expect(out[1].First).To(Equal(4))
			Expect(out[1].Second).To(Equal(4))
		})

		It("draws uniformly when nothing is selectable", func() {
			out := engine.Sample(members, make([]float64, 6))

			Expect(out).To(HaveLen(6))
			Expect(metrics.Uniform.Load()).To(Equal(int64(1)))
		})

		It("fills every row when fitness does not match the members", func() {
			out := engine.Sample(members, []float64{1, 2})

			Expect(out).To(HaveLen(6))
			for _, p := range out {
				Expect(errors.Is(p.Err, population.ErrShapeMismatch)).To(BeTrue())
			}
		})
	})
})
