package loop_test

import (
	"time"

	"jsrtgo/loop"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Loop", func() {
	It("runs a one-shot timer and then returns", func() {
		l := loop.New(nil, 2)
		fired := false
		l.TimerStart(10*time.Millisecond, false, func() { fired = true })
		l.Run()
		Expect(fired).To(BeTrue())
	})

	It("runs QueueWork on a pool goroutine and delivers the result on the loop", func() {
		l := loop.New(nil, 2)
		var result any
		l.QueueWork(func() any { return 42 }, func(r any) { result = r })
		l.Run()
		Expect(result).To(Equal(42))
	})

	It("stops a timer before it fires", func() {
		l := loop.New(nil, 2)
		fired := false
		id := l.TimerStart(50*time.Millisecond, false, func() { fired = true })
		l.TimerStop(id)
		l.Run()
		Expect(fired).To(BeFalse())
	})

	It("repeats a timer until its own callback stops it", func() {
		l := loop.New(nil, 2)
		count := 0
		var id loop.HandleID
		id = l.TimerStart(5*time.Millisecond, true, func() {
			count++
			if count >= 3 {
				l.TimerStop(id)
			}
		})
		l.Run()
		Expect(count).To(Equal(3))
	})
})
