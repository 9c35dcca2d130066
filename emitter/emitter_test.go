package emitter_test

import (
	"jsrtgo/emitter"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Emitter", func() {
	It("invokes listeners in registration order, synchronously", func() {
		var order []int
		e := emitter.New(nil)
		e.On("data", func(args ...any) { order = append(order, 1) })
		e.On("data", func(args ...any) { order = append(order, 2) })
		e.On("data", func(args ...any) { order = append(order, 3) })
		e.Emit("data")
		Expect(order).To(Equal([]int{1, 2, 3}))
	})

	It("removes a once listener before invoking it, delivering exactly one chunk", func() {
		count := 0
		e := emitter.New(nil)
		e.Once("data", func(args ...any) { count++ })
		e.Emit("data", "chunk1")
		e.Emit("data", "chunk2")
		Expect(count).To(Equal(1))
		Expect(e.ListenerCount("data")).To(Equal(0))
	})

	It("Off removes the first identity match only", func() {
		e := emitter.New(nil)
		f := func(args ...any) {}
		e.On("x", f)
		e.On("x", f)
		e.Off("x", f)
		Expect(e.ListenerCount("x")).To(Equal(1))
	})

	It("surfaces an error event with no listener to the host via onUncaught", func() {
		var got any
		e := emitter.New(func(name string, recovered any) { got = recovered })
		e.Emit("error", "boom")
		Expect(got).To(Equal("boom"))
	})

	It("RemoveAllListeners(\"\") clears every event", func() {
		e := emitter.New(nil)
		e.On("a", func(args ...any) {})
		e.On("b", func(args ...any) {})
		e.RemoveAllListeners("")
		Expect(e.ListenerCount("a")).To(Equal(0))
		Expect(e.ListenerCount("b")).To(Equal(0))
	})

	It("a listener added during Emit does not fire in the same turn", func() {
		calls := 0
		e := emitter.New(nil)
		e.On("data", func(args ...any) {
			calls++
			e.On("data", func(args ...any) { calls++ })
		})
		e.Emit("data")
		Expect(calls).To(Equal(1))
	})
})
