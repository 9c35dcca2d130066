package stream

import "jsrtgo/emitter"

// Duplex is a stream with independent Readable and Writable sides sharing
// only the EventEmitter (spec.md §4.3's "Duplex" section). AllowHalfOpen
// controls whether the readable side ending also ends the writable side.
type Duplex struct {
	*Readable
	*Writable
	em            emitter.Emitter
	allowHalfOpen bool
}

// NewDuplex wires a Readable and Writable pair under one shared emitter. If
// allowHalfOpen is false, the readable side ending (EOF) also ends the
// writable side, per spec.md §4.3's readable/writable-side invariant.
func NewDuplex(opts Options, pull func(size int), sink func(chunk []byte) error) *Duplex {
	shared := emitter.New(nil)
	r := &Readable{em: shared, opts: opts, pull: pull}
	w := &Writable{em: shared, opts: opts, sink: sink}
	d := &Duplex{Readable: r, Writable: w, em: shared, allowHalfOpen: opts.AllowHalfOpen}
	if !opts.AllowHalfOpen {
		r.em.Once("end", func(...any) {
			w.End(nil, nil)
		})
	}
	return d
}

func (d *Duplex) Emitter() emitter.Emitter { return d.em }

// On, Once, Off are defined directly on Duplex to resolve the ambiguity
// between the embedded Readable and Writable's promoted methods of the same
// name; both sides share one emitter so either delegation is equivalent.
func (d *Duplex) On(event string, l emitter.Listener)   { d.em.On(event, l) }
func (d *Duplex) Once(event string, l emitter.Listener) { d.em.Once(event, l) }
func (d *Duplex) Off(event string, l emitter.Listener)  { d.em.Off(event, l) }

// Destroy and Err are defined directly on Duplex to resolve the ambiguity
// between the embedded Readable and Writable's promoted methods of the same
// name; destroying a Duplex tears down both sides.
func (d *Duplex) Destroy(err error) {
	d.Readable.Destroy(err)
	d.Writable.Destroy(err)
}

func (d *Duplex) Err() error {
	if err := d.Readable.Err(); err != nil {
		return err
	}
	return d.Writable.Err()
}
