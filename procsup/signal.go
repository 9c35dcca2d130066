// Package procsup implements spec.md §4.8's process subsystem: signal
// registration/delivery, IPC framing to a parent process over fd 3, and
// process-wide event routing (uncaughtException, unhandledRejection,
// warning, exit, beforeExit). Grounded on the teacher's
// httpserver/run.StartWaitNotify (signal.Notify + select dispatch) for the
// signal-delivery idiom.
package procsup

import (
	"os"
	"syscall"

	"jsrtgo/rterr"
)

// signalTable maps the Node-style signal names of spec.md §4.8 to the
// syscall.Signal values the runtime binds to os/signal.
var signalTable = map[string]syscall.Signal{
	"SIGHUP":   syscall.SIGHUP,
	"SIGINT":   syscall.SIGINT,
	"SIGQUIT":  syscall.SIGQUIT,
	"SIGILL":   syscall.SIGILL,
	"SIGTRAP":  syscall.SIGTRAP,
	"SIGABRT":  syscall.SIGABRT,
	"SIGBUS":   syscall.SIGBUS,
	"SIGFPE":   syscall.SIGFPE,
	"SIGKILL":  syscall.SIGKILL,
	"SIGUSR1":  syscall.SIGUSR1,
	"SIGUSR2":  syscall.SIGUSR2,
	"SIGSEGV":  syscall.SIGSEGV,
	"SIGPIPE":  syscall.SIGPIPE,
	"SIGALRM":  syscall.SIGALRM,
	"SIGTERM":  syscall.SIGTERM,
	"SIGCHLD":  syscall.SIGCHLD,
	"SIGCONT":  syscall.SIGCONT,
	"SIGSTOP":  syscall.SIGSTOP,
	"SIGTSTP":  syscall.SIGTSTP,
	"SIGTTIN":  syscall.SIGTTIN,
	"SIGTTOU":  syscall.SIGTTOU,
	"SIGURG":   syscall.SIGURG,
	"SIGXCPU":  syscall.SIGXCPU,
	"SIGXFSZ":  syscall.SIGXFSZ,
	"SIGVTALRM": syscall.SIGVTALRM,
	"SIGPROF":  syscall.SIGPROF,
	"SIGWINCH": syscall.SIGWINCH,
	"SIGIO":    syscall.SIGIO,
	"SIGSYS":   syscall.SIGSYS,
}

// OnSignal registers handler for signal_name, per spec.md §4.8's
// `process.on(signal_name, handler)`. Multiple handlers for the same
// signal are invoked in registration order, which the shared emitter
// already guarantees.
func (p *Process) OnSignal(name string, handler func()) error {
	sig, ok := signalTable[name]
	if !ok {
		return errUnknownSignal(name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.em.On(name, func(...any) { handler() })

	if _, started := p.sigHandles[name]; !started {
		id := p.loop.SignalStart(sig, func() {
			p.em.Emit(name)
		})
		p.sigHandles[name] = id
	}
	return nil
}

// Kill delivers sig to pid, per spec.md §4.8's `process.kill(pid, sig)`.
func Kill(pid int, sigName string) error {
	if sigName == "" {
		sigName = "SIGTERM"
	}
	sig, ok := signalTable[sigName]
	if !ok {
		return errUnknownSignal(sigName)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(sig)
}

func errUnknownSignal(name string) error {
	return rterr.New(rterr.TypeMismatch, "unknown signal name").Context("signal", name)
}
