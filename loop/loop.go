// Package loop implements the runtime's single-threaded cooperative
// EventLoop (spec.md §4.1): a monotonic timer heap, a ready-I/O queue, a
// worker-completion queue, and a handle registry, all driven from one
// goroutine. Every callback registered through this package runs on that
// goroutine, never concurrently with another callback.
package loop

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"jsrtgo/rtctx"
)

// Stats is an observability addition (SPEC_FULL.md §3) exposing the loop's
// internal counters, in the same spirit as the HTTP cache's Stats() call.
type Stats struct {
	ActiveHandles int
	ActiveTimers  int
	Iterations    uint64
}

// HandleID identifies a registered handle (timer, tcp, work item...).
type HandleID uint64

// Loop is the event loop. Callers submit work via Timer*/QueueWork/Post and
// call Run to pump the loop until no active handles remain.
type Loop struct {
	mu      sync.Mutex
	timers  timerHeap
	ready   []func()
	handles rtctx.Registry[HandleID]
	nextID  HandleID
	workSem *semaphore.Weighted
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	iters   uint64
	wakeCh  chan struct{}
	onPanic func(recovered any)
}

// OnPanic registers a handler invoked when a callback run by the loop
// panics, routing it the way spec.md §4.8 routes uncaughtException. Nil
// disables reporting (panics are simply swallowed).
func (l *Loop) OnPanic(fn func(recovered any)) {
	l.mu.Lock()
	l.onPanic = fn
	l.mu.Unlock()
}

// New creates a Loop bound to parent (or context.Background() if nil), with
// a worker pool of the given concurrency used by QueueWork (spec.md §4.1's
// queue_work, backing async zlib and DNS per spec.md §5).
func New(parent context.Context, workerConcurrency int64) *Loop {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	if workerConcurrency <= 0 {
		workerConcurrency = 4
	}
	l := &Loop{
		handles: rtctx.New[HandleID](ctx),
		workSem: semaphore.NewWeighted(workerConcurrency),
		ctx:     ctx,
		cancel:  cancel,
		wakeCh:  make(chan struct{}, 1),
	}
	heap.Init(&l.timers)
	return l
}

// Stats returns a snapshot of the loop's internal counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	active := 0
	l.handles.Walk(func(HandleID, any) bool { active++; return true })
	return Stats{ActiveHandles: active, ActiveTimers: len(l.timers), Iterations: l.iters}
}

func (l *Loop) wake() {
	select {
	case l.wakeCh <- struct{}{}:
	default:
	}
}

// register adds v to the handle registry under a fresh HandleID, marking it
// active until Close(id) removes it (spec.md §4.1's handle_close semantics).
func (l *Loop) register(v any) HandleID {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.mu.Unlock()
	l.handles.Store(id, v)
	return id
}

// CloseHandle deregisters a handle, dropping the loop's reference to it. In
// the C reference this decrements a close-count before freeing memory; Go's
// GC makes that bookkeeping unnecessary once the registry entry is gone
// (recorded as a deliberate simplification in SPEC_FULL.md §9).
func (l *Loop) CloseHandle(id HandleID) {
	l.handles.Delete(id)
}

// Post schedules fn to run on the loop goroutine on its next turn, never
// synchronously with the call to Post (used, for example, to deliver
// QueueWork results and dnsx.Resolve's ENOTIMPL error).
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.ready = append(l.ready, fn)
	l.mu.Unlock()
	l.wake()
}

// QueueWork runs worker on a pool goroutine bounded by the loop's worker
// semaphore, then after on the loop goroutine with worker's result,
// mirroring spec.md §4.1's queue_work and §5's rule that worker threads must
// not touch JS engine state except through the value they return.
func (l *Loop) QueueWork(worker func() any, after func(result any)) HandleID {
	id := l.register(struct{}{})
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.CloseHandle(id)
		if err := l.workSem.Acquire(l.ctx, 1); err != nil {
			return
		}
		result := worker()
		l.workSem.Release(1)
		l.Post(func() { after(result) })
	}()
	return id
}

// Run pumps the loop: it executes ready callbacks, fires due timers, and
// sleeps until the next timer deadline or a wakeup, until either ctx is
// canceled or no timers, ready callbacks, or registered handles remain
// (spec.md §4.1's "loop_run returns when no active handles remain").
func (l *Loop) Run() {
	for {
		l.mu.Lock()
		l.iters++
		batch := l.ready
		l.ready = nil
		l.mu.Unlock()

		for _, fn := range batch {
			l.runSafely(fn)
		}

		now := time.Now()
		l.mu.Lock()
		due := l.popDueTimers(now)
		l.mu.Unlock()
		for _, e := range due {
			fn := e.fn
			l.runSafely(fn)
		}

		if l.ctx.Err() != nil && len(batch) == 0 && len(due) == 0 {
			l.wg.Wait()
			return
		}

		// Handles are checked before the ready queue: QueueWork posts its
		// result before closing its handle, so a handle seen gone here means
		// its callback is already visible in l.ready below.
		hasHandles := false
		l.handles.Walk(func(HandleID, any) bool { hasHandles = true; return false })
		l.mu.Lock()
		hasReady := len(l.ready) > 0
		deadline, hasTimer := l.nextTimerDeadline()
		l.mu.Unlock()

		if hasReady {
			continue
		}
		if !hasTimer && !hasHandles {
			return
		}

		var timeout <-chan time.Time
		if hasTimer {
			d := time.Until(deadline)
			if d < 0 {
				d = 0
			}
			t := time.NewTimer(d)
			defer t.Stop()
			timeout = t.C
		}

		select {
		case <-l.wakeCh:
		case <-timeout:
		case <-l.ctx.Done():
		}
	}
}

func (l *Loop) runSafely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.mu.Lock()
			handler := l.onPanic
			l.mu.Unlock()
			if handler != nil {
				handler(r)
			}
		}
	}()
	fn()
}

// Close cancels the loop's context, causing Run to drain and return once
// in-flight callbacks complete.
func (l *Loop) Close() {
	l.cancel()
	l.wake()
}

// Context returns the loop's lifetime context.
func (l *Loop) Context() context.Context { return l.ctx }
