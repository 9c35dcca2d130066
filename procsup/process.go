package procsup

import (
	"fmt"
	"os"
	"sync"

	"jsrtgo/emitter"
	"jsrtgo/loop"
	"jsrtgo/rterr"
	"jsrtgo/rtlog"
)

// Warning is the `{name, message, code?}` object passed to `warning`
// listeners, per spec.md §4.8's emitWarning().
type Warning struct {
	Name    string
	Message string
	Code    string
}

// Process is the process-wide EventEmitter of spec.md §4.8: signals, IPC,
// and uncaughtException/unhandledRejection/warning/exit/beforeExit
// routing. One instance is constructed per Runtime.
type Process struct {
	mu   sync.Mutex
	em   emitter.Emitter
	loop *loop.Loop
	log  rtlog.Logger

	sigHandles map[string]loop.HandleID

	ipc *IPC

	uncaughtCaptureCallback func(err error)
	connected               bool
}

// New constructs a Process bound to l. Uncaught panics raised by listeners
// are routed back through Emit("uncaughtExceptionMonitor"/"uncaughtException")
// rather than crashing the loop goroutine. Every default (no-listener) path
// below logs through rtlog rather than writing to stderr directly.
func New(l *loop.Loop) *Process {
	p := &Process{
		loop:       l,
		log:        rtlog.New().With(rtlog.Fields{"component": "process"}),
		sigHandles: make(map[string]loop.HandleID),
	}
	p.em = emitter.New(func(name string, recovered any) {
		p.reportUncaught(fmt.Errorf("panic in %q listener: %v", name, recovered))
	})
	return p
}

func (p *Process) On(name string, l emitter.Listener)   { p.em.On(name, l) }
func (p *Process) Once(name string, l emitter.Listener) { p.em.Once(name, l) }
func (p *Process) Off(name string, l emitter.Listener)  { p.em.Off(name, l) }
func (p *Process) Emitter() emitter.Emitter              { return p.em }

// EmitWarning builds a Warning and emits it, or logs it via rtlog if there
// is no listener, per spec.md §4.8.
func (p *Process) EmitWarning(message, warnType, code string) {
	if warnType == "" {
		warnType = "Warning"
	}
	w := Warning{Name: warnType, Message: message, Code: code}
	if p.em.HasListeners("warning") {
		p.em.Emit("warning", w)
		return
	}
	p.log.Warn(message, rtlog.Fields{"name": warnType, "code": code})
}

// SetUncaughtExceptionCaptureCallback installs fn as the sole recipient of
// uncaught exceptions, bypassing the "uncaughtException" event path, per
// spec.md §4.8. Passing nil restores the default event-based path. Setting
// a non-nil callback while "uncaughtException" listeners already exist is
// an error, per spec.md's rule.
func (p *Process) SetUncaughtExceptionCaptureCallback(fn func(err error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fn != nil && p.em.HasListeners("uncaughtException") {
		return errCaptureConflict()
	}
	p.uncaughtCaptureCallback = fn
	return nil
}

// reportUncaught implements spec.md §4.8's uncaughtException path:
// uncaughtExceptionMonitor always fires first and non-consuming, then
// either the capture callback or the uncaughtException event, or — with no
// handler at all — log-and-terminate.
func (p *Process) reportUncaught(err error) {
	p.em.Emit("uncaughtExceptionMonitor", err)

	p.mu.Lock()
	capture := p.uncaughtCaptureCallback
	p.mu.Unlock()

	if capture != nil {
		capture(err)
		return
	}
	if p.em.HasListeners("uncaughtException") {
		p.em.Emit("uncaughtException", err)
		return
	}
	p.log.Error(err.Error(), rtlog.Fields{"event": "uncaughtException"})
	os.Exit(1)
}

// UnhandledRejection implements spec.md §4.8's unhandledRejection path: an
// event if listened to, otherwise a printed warning.
func (p *Process) UnhandledRejection(reason error, promise any) {
	if p.em.HasListeners("unhandledRejection") {
		p.em.Emit("unhandledRejection", reason, promise)
		return
	}
	p.log.Warn(reason.Error(), rtlog.Fields{"event": "unhandledRejection"})
}

// RejectionHandled emits `rejectionHandled` when a previously unhandled
// rejection gains a handler late, per spec.md §4.8.
func (p *Process) RejectionHandled(promise any) {
	p.em.Emit("rejectionHandled", promise)
}

// BeforeExit and Exit implement spec.md §4.8's shutdown events.
func (p *Process) BeforeExit(code int) { p.em.Emit("beforeExit", code) }
func (p *Process) Exit(code int)       { p.em.Emit("exit", code) }

func errCaptureConflict() error {
	return rterr.New(rterr.TypeMismatch, "cannot set uncaughtExceptionCaptureCallback while uncaughtException listeners exist")
}
