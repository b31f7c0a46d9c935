package schema

import (
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Schema", func() {
	It("sizes a mixed row, counting each permutation group once", func() {
		s := Parse([]string{"b,4", "f,0,1,8", "p,5,2,0,0", "p,5,2,0,1"})
		Expect(s.Len()).To(Equal(4))
		Expect(s.TotalBits()).To(Equal(uint(4 + 3 + 5)))
		Expect(s.ByteSize()).To(Equal(1))
		Expect(s.Groups()).To(Equal(1))
		Expect(s.Invalid()).To(BeEmpty())
	})

	It("reserves every bit of a permutation wider than 64 bits", func() {
		s := Parse([]string{"p,21,21,0,0", "b,8"})
		Expect(s.Invalid()).To(BeEmpty())
		Expect(s.TotalBits()).To(Equal(uint(66 + 8)))
		Expect(s.ByteSize()).To(Equal(9))
	})

	It("keeps a bad column from spoiling its siblings", func() {
		s := Parse([]string{"b,8", "nope", "b,8"})
		Expect(s.Invalid()).To(Equal([]int{1}))
		Expect(s.Field(0).Kind).To(Equal(KindBits))
		Expect(s.Field(2).Kind).To(Equal(KindBits))
		Expect(s.TotalBits()).To(Equal(uint(16)))
	})

	DescribeTable("ByteSize",
		func(row []string, expected int) {
			Expect(Parse(row).ByteSize()).To(Equal(expected))
		},

		Entry("empty row", []string{}, 1),
		Entry("nil only", []string{"n"}, 1),
		Entry("7 bits", []string{"b,7"}, 1),
		Entry("8 bits", []string{"b,8"}, 1),
		Entry("15 bits", []string{"b,15"}, 2),
		Entry("16 bits", []string{"b,16"}, 2),
		Entry("64 bits", []string{"b,32", "b,32"}, 8),
	)

	It("tracks the highest permutation group", func() {
		s := Parse([]string{"p,4,4,2,0", "p,3,1,0,0"})
		Expect(s.Groups()).To(Equal(3))
	})

	It("returns its descriptors", func() {
		row := []string{"b,4", "n"}
		Expect(Parse(row).Sources()).To(Equal(row))
	})
})

var _ = Describe("Cache", func() {
	var (
		cache      *Cache
		hits, miss int
	)

	BeforeEach(func() {
		hits, miss = 0, 0
		var err error
		cache, err = NewCache(WithObserver(func(hit bool, _ *Schema) {
			if hit {
				hits++
			} else {
				miss++
			}
		}))
		Expect(err).NotTo(HaveOccurred())
	})

	It("parses a row once", func() {
		row := []string{"b,4", "f,0,1,8"}
		first := cache.GetOrParse(row)
		second := cache.GetOrParse([]string{"b,4", "f,0,1,8"})
		Expect(second).To(BeIdenticalTo(first))
		Expect(hits).To(Equal(1))
		Expect(miss).To(Equal(1))
	})

	It("replaces the schema when the row changes", func() {
		first := cache.GetOrParse([]string{"b,4"})
		second := cache.GetOrParse([]string{"b,5"})
		Expect(second).NotTo(BeIdenticalTo(first))
		Expect(second.TotalBits()).To(Equal(uint(5)))
		Expect(cache.Len()).To(Equal(1))

		third := cache.GetOrParse([]string{"b,4"})
		Expect(third).NotTo(BeIdenticalTo(first))
		Expect(miss).To(Equal(3))
	})

	It("distinguishes rows that concatenate to the same text", func() {
		a := cache.GetOrParse([]string{"b,4", "n"})
		b := cache.GetOrParse([]string{"b,4n"})
		Expect(a.Len()).To(Equal(2))
		Expect(b.Len()).To(Equal(1))
	})

	It("keeps several rows warm when sized for them", func() {
		c, err := NewCache(WithCacheSize(4))
		Expect(err).NotTo(HaveOccurred())
		a := c.GetOrParse([]string{"b,1"})
		c.GetOrParse([]string{"b,2"})
		Expect(c.GetOrParse([]string{"b,1"})).To(BeIdenticalTo(a))

		c.Purge()
		Expect(c.Len()).To(BeZero())
	})

	It("rejects a non-positive size", func() {
		_, err := NewCache(WithCacheSize(0))
		Expect(err).To(HaveOccurred())
	})

	It("serves concurrent callers a single fully parsed schema", func() {
		c, err := NewCache()
		Expect(err).NotTo(HaveOccurred())

		row := []string{"b,4", "f,0,1,8", "p,5,2,0,0", "p,5,2,0,1"}
		results := make([]*Schema, 32)

		var wg sync.WaitGroup
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = c.GetOrParse(row)
			}(i)
		}
		wg.Wait()

		for _, s := range results {
			Expect(s).To(BeIdenticalTo(results[0]))
			Expect(s.TotalBits()).To(Equal(uint(12)))
		}
	})
})
