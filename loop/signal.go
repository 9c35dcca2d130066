package loop

import (
	"os"
	"os/signal"
)

// SignalStart registers fn to run on the loop goroutine whenever sig is
// received, mirroring spec.md §4.1's signal_start. The returned HandleID
// keeps the loop alive until SignalStop(id) is called.
func (l *Loop) SignalStart(sig os.Signal, fn func()) HandleID {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sig)
	id := l.register(ch)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for {
			select {
			case <-ch:
				l.Post(fn)
			case <-l.ctx.Done():
				signal.Stop(ch)
				return
			}
			if _, ok := l.handles.Load(id); !ok {
				signal.Stop(ch)
				return
			}
		}
	}()
	return id
}

// SignalStop stops delivery of a signal handle registered by SignalStart.
func (l *Loop) SignalStop(id HandleID) {
	l.handles.Delete(id)
}
