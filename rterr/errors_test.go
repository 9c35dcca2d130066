package rterr_test

import (
	"errors"

	"jsrtgo/rterr"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Error", func() {
	It("carries its own code", func() {
		e := rterr.New(rterr.SystemErr, "bind failed")
		Expect(e.IsCode(rterr.SystemErr)).To(BeTrue())
		Expect(e.IsCode(rterr.CodecErr)).To(BeFalse())
	})

	It("reports HasCode through a parent chain", func() {
		root := rterr.New(rterr.ReferenceErr, "ENOTFOUND")
		wrapped := rterr.New(rterr.SystemErr, "lookup failed", root)
		Expect(wrapped.HasCode(rterr.ReferenceErr)).To(BeTrue())
		Expect(wrapped.IsCode(rterr.ReferenceErr)).To(BeFalse())
	})

	It("is compatible with errors.Is/As", func() {
		e := rterr.New(rterr.StreamErr, "write after end")
		var target rterr.Error
		Expect(errors.As(error(e), &target)).To(BeTrue())
		Expect(rterr.Is(e)).To(BeTrue())
	})

	It("attaches and retrieves context details", func() {
		e := rterr.New(rterr.SystemErr, "connect failed").Context("syscall", "connect").Context("port", "8080")
		v, ok := e.Get("syscall")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("connect"))
	})

	It("clamps negative codes to Unknown via ParseCodeError", func() {
		Expect(rterr.ParseCodeError(-1)).To(Equal(rterr.Unknown))
	})
})
