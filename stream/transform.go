package stream

import "jsrtgo/emitter"

// TransformFunc is the `_transform(chunk, encoding, cb)` hook of spec.md
// §4.3: it may call push zero or more times, then must call cb(err).
type TransformFunc func(chunk []byte, push func([]byte), cb func(err error))

// FlushFunc is the `_flush(cb)` hook, invoked once after the writable side
// ends; it may push final chunks before calling cb(err).
type FlushFunc func(push func([]byte), cb func(err error))

// Transform owns both a Writable-in and Readable-out side (spec.md §4.3's
// "Transform" section). PassThrough is a Transform with the default
// pass-through hook (see NewPassThrough).
type Transform struct {
	*Readable
	*Writable
	em emitter.Emitter

	transform TransformFunc
	flush     FlushFunc
}

// NewTransform builds a Transform from its _transform and _flush hooks. A
// nil flush is a no-op; a nil transform defaults to pass-through.
func NewTransform(opts Options, transform TransformFunc, flush FlushFunc) *Transform {
	if transform == nil {
		transform = func(chunk []byte, push func([]byte), cb func(error)) {
			push(chunk)
			cb(nil)
		}
	}
	shared := emitter.New(nil)
	t := &Transform{em: shared, transform: transform, flush: flush}

	r := &Readable{em: shared, opts: opts}
	t.Readable = r

	w := &Writable{em: shared, opts: opts}
	w.sink = func(chunk []byte) error {
		var sinkErr error
		done := make(chan struct{})
		t.transform(chunk, func(out []byte) { r.Push(out) }, func(err error) {
			sinkErr = err
			close(done)
		})
		<-done
		return sinkErr
	}
	t.Writable = w

	w.em.Once("finish", func(...any) {
		if t.flush == nil {
			r.Push(nil)
			return
		}
		done := make(chan struct{})
		var flushErr error
		t.flush(func(out []byte) { r.Push(out) }, func(err error) {
			flushErr = err
			close(done)
		})
		<-done
		if flushErr != nil {
			r.Destroy(flushErr)
			return
		}
		r.Push(nil)
	})

	return t
}

// NewPassThrough builds a Transform with the default pass-through hook,
// per spec.md §4.3: "PassThrough is Transform with the default hook".
func NewPassThrough(opts Options) *Transform {
	return NewTransform(opts, nil, nil)
}

func (t *Transform) Emitter() emitter.Emitter { return t.em }

func (t *Transform) On(event string, l emitter.Listener)   { t.em.On(event, l) }
func (t *Transform) Once(event string, l emitter.Listener) { t.em.Once(event, l) }
func (t *Transform) Off(event string, l emitter.Listener)  { t.em.Off(event, l) }

// Destroy and Err are defined directly on Transform to resolve the
// ambiguity between the embedded Readable and Writable's promoted methods
// of the same name; destroying a Transform tears down both sides.
func (t *Transform) Destroy(err error) {
	t.Readable.Destroy(err)
	t.Writable.Destroy(err)
}

func (t *Transform) Err() error {
	if err := t.Readable.Err(); err != nil {
		return err
	}
	return t.Writable.Err()
}
