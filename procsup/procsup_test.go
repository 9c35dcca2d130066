package procsup_test

import (
	"errors"
	"net"
	"time"

	"jsrtgo/loop"
	"jsrtgo/procsup"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Signals", func() {
	It("rejects an unrecognized signal name", func() {
		l := loop.New(nil, 1)
		p := procsup.New(l)
		err := p.OnSignal("SIGNOTREAL", func() {})
		Expect(err).To(HaveOccurred())
	})

	It("accepts a recognized signal name", func() {
		l := loop.New(nil, 1)
		p := procsup.New(l)
		err := p.OnSignal("SIGUSR1", func() {})
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("Uncaught exception routing", func() {
	It("routes through the capture callback when one is installed", func() {
		l := loop.New(nil, 1)
		p := procsup.New(l)

		var captured error
		Expect(p.SetUncaughtExceptionCaptureCallback(func(err error) {
			captured = err
		})).To(Succeed())

		var monitorFired bool
		p.On("uncaughtExceptionMonitor", func(...any) { monitorFired = true })
		p.On("uncaughtException", func(...any) {
			Fail("uncaughtException should not fire once a capture callback is installed")
		})

		// A panicking listener is the emitter's own uncaught-exception
		// trigger; it routes through Process's onUncaught callback into
		// reportUncaught, which must prefer the capture callback.
		p.On("data", func(...any) { panic(errors.New("listener blew up")) })
		p.Emitter().Emit("data")

		Expect(monitorFired).To(BeTrue())
		Expect(captured).To(HaveOccurred())
	})

	It("refuses to install a capture callback once uncaughtException has listeners", func() {
		l := loop.New(nil, 1)
		p := procsup.New(l)
		p.On("uncaughtException", func(...any) {})

		err := p.SetUncaughtExceptionCaptureCallback(func(err error) {})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("IPC framing", func() {
	It("round-trips a JSON value over a framed pipe and emits message", func() {
		parentConn, childConn := net.Pipe()
		defer parentConn.Close()
		defer childConn.Close()

		l := loop.New(nil, 1)
		p := procsup.New(l)
		ipc := procsup.NewIPC(childConn)
		p.StartIPC(l, ipc)

		messages := make(chan any, 1)
		p.On("message", func(args ...any) { messages <- args[0] })

		go func() {
			parentIPC := procsup.NewIPC(parentConn)
			_ = parentIPC.Send(map[string]any{"hello": "world"})
		}()
		go l.Run()

		var received any
		select {
		case received = <-messages:
		case <-time.After(2 * time.Second):
			Fail("timed out waiting for IPC message")
		}
		l.Close()

		m, ok := received.(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(m["hello"]).To(Equal("world"))
	})
})
