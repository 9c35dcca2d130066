package bufpool_test

import (
	"jsrtgo/bufpool"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Pool", func() {
	It("returns a slice of exactly the requested length", func() {
		p := bufpool.New()
		b := p.Get(10)
		Expect(b).To(HaveLen(10))
	})

	It("reuses a returned buffer instead of allocating fresh", func() {
		p := bufpool.New()
		b := p.Get(4096)
		addr := &b[0:1][0]
		p.Put(b)
		b2 := p.Get(4096)
		Expect(&b2[0:1][0]).To(Equal(addr))
	})

	It("falls back to a plain allocation above the largest tier", func() {
		p := bufpool.New()
		b := p.Get(1024 * 1024)
		Expect(b).To(HaveLen(1024 * 1024))
	})
})
