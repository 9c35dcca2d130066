package stream

import "io"

// WrapReader adapts a plain io.Reader into a paused-mode Readable, pulling
// chunks of highWaterMark bytes on demand. Grounded on the any-boxing
// adapter idiom of the teacher's ioutils/iowrapper package: an underlying
// object is boxed behind a narrow interface and probed with a type
// assertion rather than required to implement the whole stream contract.
func WrapReader(opts Options, underlying io.Reader) *Readable {
	var r *Readable
	r = NewReadable(opts, func(size int) {
		if size <= 0 {
			size = opts.HighWaterMark
		}
		buf := make([]byte, size)
		n, err := underlying.Read(buf)
		if n > 0 {
			r.Push(buf[:n])
		}
		if err != nil {
			if err == io.EOF {
				r.Push(nil)
				return
			}
			r.Destroy(err)
		}
	})
	return r
}

// WrapWriter adapts a plain io.Writer into a Writable whose sink delegates
// each accepted chunk straight to the underlying writer.
func WrapWriter(opts Options, underlying io.Writer) *Writable {
	return NewWritable(opts, func(chunk []byte) error {
		_, err := underlying.Write(chunk)
		return err
	})
}
