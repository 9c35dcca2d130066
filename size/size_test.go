package size_test

import (
	"jsrtgo/size"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Size", func() {
	It("formats sub-KiB sizes as bytes", func() {
		Expect(size.Size(512).String()).To(Equal("512 B"))
	})

	It("formats KiB sizes", func() {
		Expect(size.Size(4 * size.KiB).String()).To(Equal("4.00 KiB"))
	})

	It("converts to int for buffer allocation", func() {
		Expect(size.Size(64 * size.KiB).Int()).To(Equal(65536))
	})
})
