package tty_test

import (
	"jsrtgo/tty"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func fakeEnv(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

var _ = Describe("GetColorDepth", func() {
	It("returns 1-bit when NO_COLOR is set, overriding everything else", func() {
		depth := tty.GetColorDepth(fakeEnv(map[string]string{
			"NO_COLOR":  "1",
			"COLORTERM": "truecolor",
		}))
		Expect(depth).To(Equal(tty.Depth1))
	})

	It("returns 24-bit for COLORTERM=truecolor", func() {
		depth := tty.GetColorDepth(fakeEnv(map[string]string{"COLORTERM": "truecolor"}))
		Expect(depth).To(Equal(tty.Depth24))
	})

	It("returns 8-bit for a 256color TERM", func() {
		depth := tty.GetColorDepth(fakeEnv(map[string]string{"TERM": "xterm-256color"}))
		Expect(depth).To(Equal(tty.Depth8))
	})

	It("returns 4-bit for a recognised xterm-family TERM", func() {
		depth := tty.GetColorDepth(fakeEnv(map[string]string{"TERM": "xterm"}))
		Expect(depth).To(Equal(tty.Depth4))
	})

	It("honours FORCE_COLOR levels", func() {
		Expect(tty.GetColorDepth(fakeEnv(map[string]string{"FORCE_COLOR": "3"}))).To(Equal(tty.Depth24))
		Expect(tty.GetColorDepth(fakeEnv(map[string]string{"FORCE_COLOR": "0"}))).To(Equal(tty.Depth1))
	})

	It("defaults to 1-bit with no recognised signal", func() {
		depth := tty.GetColorDepth(fakeEnv(map[string]string{"TERM": "dumb"}))
		Expect(depth).To(Equal(tty.Depth1))
	})
})

var _ = Describe("IsATTY", func() {
	It("returns false for an fd that names no terminal", func() {
		Expect(tty.IsATTY(^uintptr(0))).To(BeFalse())
	})
})
