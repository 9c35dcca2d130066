// Package stream implements the Readable/Writable/Duplex/Transform/
// PassThrough hierarchy of spec.md §4.3: buffering, flowing/paused modes,
// backpressure, piping, and end-of-stream propagation. Each stream owns a
// nested emitter.Emitter (spec.md §3's Stream attribute list), composed
// rather than attached via per-instance closures (spec.md §6's redesign
// flag: "a cleaner reimplementation uses a capability-set for Readable and
// Writable and composes Duplex/Transform/PassThrough from those").
package stream

import (
	"sync"

	"jsrtgo/emitter"
	"jsrtgo/rterr"
)

// Options configures a Readable or Writable's buffering behavior, mirroring
// spec.md §3's Stream.options.
type Options struct {
	HighWaterMark int
	ObjectMode    bool
	EmitClose     bool
	AutoDestroy   bool
	AllowHalfOpen bool
}

// DefaultOptions matches Node's conventional 16 KiB highWaterMark.
func DefaultOptions() Options {
	return Options{HighWaterMark: 16 * 1024, EmitClose: true, AutoDestroy: true}
}

type readState int

const (
	readIdle readState = iota
	readFlowing
	readPaused
	readEnded
)

// Readable is the readable side of the stream hierarchy: a buffer of
// pushed chunks plus the flowing/paused/ended state machine of spec.md
// §4.3's "State machine (Readable side)".
type Readable struct {
	mu       sync.Mutex
	em       emitter.Emitter
	opts     Options
	state    readState
	buf      [][]byte
	bufLen   int
	ended    bool // push(nil) seen
	errored  error
	destroyed bool
	readableEmitted bool

	// pull is invoked (at most once in flight) whenever the consumer wants
	// more data and the internal buffer is empty; analogous to _read(size).
	pull func(size int)
}

// NewReadable constructs a Readable with the given options and an optional
// pull hook invoked when the stream needs more data (nil means the producer
// calls Push on its own schedule, e.g. a TCP socket).
func NewReadable(opts Options, pull func(size int)) *Readable {
	return &Readable{
		em:   emitter.New(nil),
		opts: opts,
		pull: pull,
	}
}

// On, Once, Off, Emit delegate to the stream's nested emitter so callers can
// subscribe to data/end/error/readable/close the way spec.md describes.
func (r *Readable) On(event string, l emitter.Listener)   { r.em.On(event, l) }
func (r *Readable) Once(event string, l emitter.Listener) { r.em.Once(event, l) }
func (r *Readable) Off(event string, l emitter.Listener)  { r.em.Off(event, l) }
func (r *Readable) Emitter() emitter.Emitter               { return r.em }

// Ended reports whether the readable side has reached its terminal state
// (push(nil) seen and buffer drained).
func (r *Readable) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == readEnded
}

// IsFlowing reports whether the stream is in flowing mode.
func (r *Readable) IsFlowing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == readFlowing
}

// Resume switches the stream to flowing mode, draining any buffered chunks
// as data events and requesting more via pull.
func (r *Readable) Resume() {
	r.mu.Lock()
	if r.state == readEnded || r.destroyed {
		r.mu.Unlock()
		return
	}
	r.state = readFlowing
	empty := r.bufLen == 0
	r.mu.Unlock()
	if empty {
		r.maybePull()
	}
	r.drainFlowing()
}

// Pause switches the stream to paused mode: subsequent pushes are buffered
// rather than emitted immediately.
func (r *Readable) Pause() {
	r.mu.Lock()
	if r.state == readFlowing {
		r.state = readPaused
	}
	r.mu.Unlock()
}

// OnData registers a data listener and then resumes flowing mode, applying
// spec.md §4.3's "Idle → Flowing: first listener added for data". A plain
// On("data", ...) only registers the listener and leaves the mode as it is.
func (r *Readable) OnData(l func(chunk []byte)) {
	r.em.On("data", func(args ...any) {
		if b, ok := args[0].([]byte); ok {
			l(b)
		}
	})
	r.Resume()
}

// Push appends a chunk to the stream (nil signals EOF), returning false if
// the caller should stop pushing until drained (buffer at/above
// highWaterMark), per spec.md §3's Readable push/read operations.
func (r *Readable) Push(chunk []byte) bool {
	r.mu.Lock()
	if r.destroyed || r.ended {
		r.mu.Unlock()
		return false
	}
	if chunk == nil {
		r.ended = true
		flowing := r.state == readFlowing
		empty := r.bufLen == 0
		r.mu.Unlock()
		if flowing && empty {
			r.finishEnd()
		}
		return false
	}

	flowing := r.state == readFlowing
	r.mu.Unlock()

	if flowing {
		r.em.Emit("data", chunk)
		r.maybePull()
		return true
	}

	r.mu.Lock()
	r.buf = append(r.buf, chunk)
	r.bufLen += len(chunk)
	emitted := r.readableEmitted
	r.readableEmitted = true
	below := r.bufLen < r.opts.HighWaterMark
	r.mu.Unlock()
	if !emitted {
		r.em.Emit("readable")
	}
	return below
}

// Read pulls up to n bytes (or one whole chunk if n<=0) from the internal
// buffer in paused mode, returning nil if the buffer is empty. Any
// terminal-state "end"/"close" emission and any pull-for-more request are
// issued synchronously on the caller's goroutine, after the lock is
// released, per spec.md §4.1/§5: every Emit dispatch stays on the thread
// that drives the stream, never a bare spawned goroutine.
func (r *Readable) Read(n int) []byte {
	r.mu.Lock()
	if len(r.buf) == 0 {
		r.mu.Unlock()
		return nil
	}
	r.readableEmitted = false

	if n <= 0 || n >= len(r.buf[0]) {
		chunk := r.buf[0]
		r.buf = r.buf[1:]
		r.bufLen -= len(chunk)
		finish := r.ended && r.bufLen == 0 && r.state != readEnded
		pull := len(r.buf) == 0 && !r.ended
		r.mu.Unlock()

		if finish {
			r.finishEnd()
		}
		if pull {
			r.maybePull()
		}
		return chunk
	}
	chunk := r.buf[0][:n]
	r.buf[0] = r.buf[0][n:]
	r.bufLen -= n
	r.mu.Unlock()
	return chunk
}

func (r *Readable) maybePull() {
	r.mu.Lock()
	pull := r.pull
	r.mu.Unlock()
	if pull != nil {
		pull(r.opts.HighWaterMark)
	}
}

// drainFlowing emits buffered chunks as data events until the buffer is
// empty or the stream is paused again mid-drain.
func (r *Readable) drainFlowing() {
	for {
		r.mu.Lock()
		if r.state != readFlowing || len(r.buf) == 0 {
			ended := r.ended && len(r.buf) == 0 && r.state == readFlowing
			r.mu.Unlock()
			if ended {
				r.finishEnd()
			}
			return
		}
		chunk := r.buf[0]
		r.buf = r.buf[1:]
		r.bufLen -= len(chunk)
		r.mu.Unlock()
		r.em.Emit("data", chunk)
	}
	// maybePull is intentionally not called here: Resume pulls before
	// draining when the buffer is empty, and Push pulls again after each
	// chunk it emits in flowing mode.
}

// finishEnd emits "end" exactly once, per spec.md §3's ended_emitted flag.
func (r *Readable) finishEnd() {
	r.mu.Lock()
	if r.state == readEnded {
		r.mu.Unlock()
		return
	}
	r.state = readEnded
	r.mu.Unlock()
	r.em.Emit("end")
	if r.opts.EmitClose {
		r.em.Emit("close")
	}
}

// Destroy transitions the stream to Errored (if err != nil) or simply tears
// it down, emitting "error" then "close" per spec.md §3.
func (r *Readable) Destroy(err error) {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return
	}
	r.destroyed = true
	r.errored = err
	r.mu.Unlock()
	if err != nil {
		r.em.Emit("error", err)
	}
	if r.opts.EmitClose {
		r.em.Emit("close")
	}
}

// Err returns the error that destroyed the stream, if any.
func (r *Readable) Err() error { return r.errored }

var errWriteAfterEnd = rterr.New(rterr.StreamErr, "write after end")
var errWriteOnDestroyed = rterr.New(rterr.StreamErr, "stream destroyed")
