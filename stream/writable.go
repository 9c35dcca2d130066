package stream

import (
	"sync"

	"jsrtgo/emitter"
)

type writeState int

const (
	writeOpen writeState = iota
	writeEnding
	writeFinished
)

type writeCallback struct {
	chunk []byte
	cb    func(err error)
}

// Writable is the writable side of the stream hierarchy: a queue of pending
// writes plus the open/ending/finished state machine of spec.md §4.3's
// "State machine (Writable side)".
type Writable struct {
	mu         sync.Mutex
	em         emitter.Emitter
	opts       Options
	state      writeState
	queued     []writeCallback
	queuedLen  int
	corkDepth  int
	needDrain  bool
	destroyed  bool
	errored    error

	// sink accepts a chunk for real delivery (socket write, sink buffer,
	// Transform's _transform...). Returning an error fails the write.
	sink func(chunk []byte) error
}

// NewWritable constructs a Writable backed by sink, the function that
// actually delivers each accepted chunk.
func NewWritable(opts Options, sink func(chunk []byte) error) *Writable {
	return &Writable{em: emitter.New(nil), opts: opts, sink: sink}
}

func (w *Writable) On(event string, l emitter.Listener)   { w.em.On(event, l) }
func (w *Writable) Once(event string, l emitter.Listener) { w.em.Once(event, l) }
func (w *Writable) Off(event string, l emitter.Listener)  { w.em.Off(event, l) }
func (w *Writable) Emitter() emitter.Emitter               { return w.em }

// Write appends chunk to the pending-write queue, returning true if the
// queued length stays below highWaterMark, false (need_drain=true) if the
// caller should wait for "drain" before writing more.
func (w *Writable) Write(chunk []byte, cb func(err error)) bool {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		if cb != nil {
			cb(errWriteOnDestroyed)
		} else {
			w.em.Emit("error", errWriteOnDestroyed)
		}
		return false
	}
	if w.state != writeOpen {
		w.mu.Unlock()
		if cb != nil {
			cb(errWriteAfterEnd)
		} else {
			w.em.Emit("error", errWriteAfterEnd)
		}
		return false
	}

	w.queued = append(w.queued, writeCallback{chunk: chunk, cb: cb})
	w.queuedLen += len(chunk)
	corked := w.corkDepth > 0
	below := w.queuedLen < w.opts.HighWaterMark
	if !below {
		w.needDrain = true
	}
	w.mu.Unlock()

	if !corked {
		w.flush()
	}
	return below
}

// Cork increments cork_depth; while >0, writes are held in the queue rather
// than flushed immediately. They are not merged: each is later delivered to
// the sink as its own chunk.
func (w *Writable) Cork() {
	w.mu.Lock()
	w.corkDepth++
	w.mu.Unlock()
}

// Uncork decrements cork_depth; on transition to 0, queued chunks flush.
func (w *Writable) Uncork() {
	w.mu.Lock()
	if w.corkDepth > 0 {
		w.corkDepth--
	}
	atZero := w.corkDepth == 0
	w.mu.Unlock()
	if atZero {
		w.flush()
	}
}

// flush delivers queued chunks to sink in order, invoking each chunk's
// callback and emitting "drain" once the queue empties if backpressure was
// previously signalled.
func (w *Writable) flush() {
	for {
		w.mu.Lock()
		if len(w.queued) == 0 {
			w.mu.Unlock()
			return
		}
		item := w.queued[0]
		w.queued = w.queued[1:]
		w.mu.Unlock()

		var err error
		if w.sink != nil {
			err = w.sink(item.chunk)
		}

		w.mu.Lock()
		w.queuedLen -= len(item.chunk)
		if w.queuedLen < 0 {
			w.queuedLen = 0
		}
		drained := w.needDrain && w.queuedLen < w.opts.HighWaterMark
		if drained {
			w.needDrain = false
		}
		finishNow := w.state == writeEnding && len(w.queued) == 0
		w.mu.Unlock()

		if item.cb != nil {
			item.cb(err)
		}
		if err != nil {
			w.em.Emit("error", err)
			w.Destroy(err)
			return
		}
		if drained {
			w.em.Emit("drain")
		}
		if finishNow {
			w.finish()
		}
	}
}

// End transitions to Ending; once all pending writes are delivered, "finish"
// is emitted (and "close" if emit_close is set).
func (w *Writable) End(chunk []byte, cb func(err error)) {
	if chunk != nil {
		w.Write(chunk, nil)
	}
	w.mu.Lock()
	if w.state != writeOpen {
		w.mu.Unlock()
		if cb != nil {
			cb(nil)
		}
		return
	}
	w.state = writeEnding
	empty := len(w.queued) == 0
	w.mu.Unlock()
	if cb != nil {
		w.em.Once("finish", func(...any) { cb(nil) })
	}
	if empty {
		w.finish()
	}
}

func (w *Writable) finish() {
	w.mu.Lock()
	if w.state == writeFinished {
		w.mu.Unlock()
		return
	}
	w.state = writeFinished
	w.mu.Unlock()
	w.em.Emit("finish")
	if w.opts.EmitClose {
		w.em.Emit("close")
	}
}

// Destroy tears the writable side down immediately, discarding any queued
// writes, emitting "error" (if err != nil) then "close".
func (w *Writable) Destroy(err error) {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.destroyed = true
	w.errored = err
	w.queued = nil
	w.mu.Unlock()
	if err != nil {
		w.em.Emit("error", err)
	}
	if w.opts.EmitClose {
		w.em.Emit("close")
	}
}

// Finished reports whether the writable side has fully finished.
func (w *Writable) Finished() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == writeFinished
}

// Err returns the error that destroyed the stream, if any.
func (w *Writable) Err() error { return w.errored }
