package cache_test

import (
	"jsrtgo/httpmodule/cache"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Cache", func() {
	It("misses on an empty cache and hits after put", func() {
		c := cache.New(4)
		_, ok := c.Get("https://esm.run/a.js")
		Expect(ok).To(BeFalse())

		c.Put("https://esm.run/a.js", []byte("module.exports = 1"), "etag-1", "")
		e, ok := c.Get("https://esm.run/a.js")
		Expect(ok).To(BeTrue())
		Expect(e.Body).To(Equal([]byte("module.exports = 1")))
		Expect(e.ETag).To(Equal("etag-1"))

		stats := c.Stats()
		Expect(stats.Entries).To(Equal(1))
		Expect(stats.Hits).To(Equal(uint64(1)))
		Expect(stats.Misses).To(Equal(uint64(1)))
	})

	It("evicts the least recently used entry once at capacity", func() {
		c := cache.New(2)
		c.Put("https://esm.run/a.js", []byte("a"), "", "")
		c.Put("https://esm.run/b.js", []byte("b"), "", "")

		// touch a so b becomes the LRU tail
		_, _ = c.Get("https://esm.run/a.js")

		c.Put("https://esm.run/c.js", []byte("c"), "", "")

		_, ok := c.Get("https://esm.run/b.js")
		Expect(ok).To(BeFalse())

		_, ok = c.Get("https://esm.run/a.js")
		Expect(ok).To(BeTrue())
		_, ok = c.Get("https://esm.run/c.js")
		Expect(ok).To(BeTrue())

		Expect(c.Stats().Entries).To(Equal(2))
	})

	It("replaces an existing entry in place without growing the count", func() {
		c := cache.New(4)
		c.Put("https://esm.run/a.js", []byte("v1"), "", "")
		c.Put("https://esm.run/a.js", []byte("v2"), "", "")

		e, ok := c.Get("https://esm.run/a.js")
		Expect(ok).To(BeTrue())
		Expect(e.Body).To(Equal([]byte("v2")))
		Expect(c.Stats().Entries).To(Equal(1))
	})

	It("removes an entry explicitly", func() {
		c := cache.New(4)
		c.Put("https://esm.run/a.js", []byte("a"), "", "")
		c.Remove("https://esm.run/a.js")
		_, ok := c.Get("https://esm.run/a.js")
		Expect(ok).To(BeFalse())
		Expect(c.Stats().Entries).To(Equal(0))
	})

	It("clears every entry", func() {
		c := cache.New(4)
		c.Put("https://esm.run/a.js", []byte("a"), "", "")
		c.Put("https://esm.run/b.js", []byte("b"), "", "")
		c.Clear()
		Expect(c.Stats().Entries).To(Equal(0))
		_, ok := c.Get("https://esm.run/a.js")
		Expect(ok).To(BeFalse())
	})
})
