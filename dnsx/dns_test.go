package dnsx_test

import (
	"jsrtgo/dnsx"
	"jsrtgo/loop"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Lookup", func() {
	It("resolves a literal IPv4 address to itself", func() {
		l := loop.New(nil, 2)
		var gotErr error
		var gotResult any
		dnsx.Lookup(l, "127.0.0.1", dnsx.LookupOptions{}, func(err error, result any) {
			gotErr = err
			gotResult = result
		})
		l.Run()
		Expect(gotErr).NotTo(HaveOccurred())
		addr, ok := gotResult.(dnsx.Address)
		Expect(ok).To(BeTrue())
		Expect(addr.Address).To(Equal("127.0.0.1"))
		Expect(addr.Family).To(Equal(4))
	})
})

var _ = Describe("Resolve", func() {
	It("stubs the resolve* family with ENOTIMPL", func() {
		l := loop.New(nil, 2)
		var gotErr error
		dnsx.Resolve(l, "example.com", "A", func(err error, records []string) {
			gotErr = err
		})
		l.Run()
		Expect(gotErr).To(HaveOccurred())
	})
})
