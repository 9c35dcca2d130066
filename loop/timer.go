package loop

import (
	"container/heap"
	"time"
)

// timerEntry is one scheduled callback, ordered by deadline in timerHeap.
type timerEntry struct {
	id       HandleID
	deadline time.Time
	interval time.Duration // the start delay; the period when repeat is set
	repeat   bool
	fn       func()
	index    int
	canceled bool
}

// timerHeap is a container/heap.Interface ordering entries by deadline,
// implementing spec.md §4.1's timer heap (O(log n) timer_start/timer_stop).
type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// TimerStart schedules fn to run after delay, repeating every delay if
// repeat is true (setInterval-style), mirroring spec.md §4.1's timer_start.
// Returns a HandleID usable with TimerStop.
func (l *Loop) TimerStart(delay time.Duration, repeat bool, fn func()) HandleID {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	e := &timerEntry{
		id:       id,
		deadline: time.Now().Add(delay),
		interval: delay,
		repeat:   repeat,
		fn:       fn,
	}
	heap.Push(&l.timers, e)
	l.mu.Unlock()
	l.handles.Store(id, e)
	l.wake()
	return id
}

// TimerStop cancels a pending or repeating timer. Safe to call more than
// once or after the timer has already fired.
func (l *Loop) TimerStop(id HandleID) {
	if v, ok := l.handles.Load(id); ok {
		if e, ok := v.(*timerEntry); ok {
			l.mu.Lock()
			e.canceled = true
			l.mu.Unlock()
		}
	}
	l.handles.Delete(id)
}

// nextTimerDeadline returns the deadline of the next live timer and whether
// one exists, skipping (and popping) any already-canceled entries.
func (l *Loop) nextTimerDeadline() (time.Time, bool) {
	for len(l.timers) > 0 {
		e := l.timers[0]
		if e.canceled {
			heap.Pop(&l.timers)
			continue
		}
		return e.deadline, true
	}
	return time.Time{}, false
}

// popDueTimers removes and returns all timers whose deadline has passed,
// re-scheduling repeating ones.
func (l *Loop) popDueTimers(now time.Time) []*timerEntry {
	var due []*timerEntry
	for len(l.timers) > 0 {
		e := l.timers[0]
		if e.canceled {
			heap.Pop(&l.timers)
			continue
		}
		if e.deadline.After(now) {
			break
		}
		heap.Pop(&l.timers)
		due = append(due, e)
		if e.repeat {
			e.deadline = now.Add(e.interval)
			heap.Push(&l.timers, e)
		} else {
			l.handles.Delete(e.id)
		}
	}
	return due
}
