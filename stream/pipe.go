package stream

// Pipe implements spec.md §4.3's pipe() semantics: every chunk from src is
// written to dest; a false return from Write indicates backpressure, so src
// is paused until dest's next "drain". If end is true, src's "end" ends
// dest too. Errors on either side propagate via "error" and unpipe.
func Pipe(src *Readable, dest *Writable, end bool) {
	dest.em.Emit("pipe", src)

	var unpiped bool
	unpipe := func() { unpiped = true }

	src.OnData(func(chunk []byte) {
		if unpiped {
			return
		}
		ok := dest.Write(chunk, nil)
		if !ok {
			src.Pause()
			dest.Once("drain", func(...any) {
				if !unpiped {
					src.Resume()
				}
			})
		}
	})

	src.Once("end", func(...any) {
		if end && !unpiped {
			dest.End(nil, nil)
		}
	})

	src.Once("error", func(args ...any) {
		unpipe()
		if len(args) > 0 {
			if err, ok := args[0].(error); ok {
				dest.Destroy(err)
			}
		}
	})

	dest.Once("error", func(...any) {
		unpipe()
	})
}
