package stream_test

import (
	"bytes"

	"jsrtgo/stream"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Readable", func() {
	It("buffers pushed chunks while paused and delivers them via Read", func() {
		r := stream.NewReadable(stream.DefaultOptions(), nil)
		r.Push([]byte("hello"))
		Expect(r.Read(-1)).To(Equal([]byte("hello")))
	})

	It("emits data events immediately once flowing", func() {
		r := stream.NewReadable(stream.DefaultOptions(), nil)
		var got []byte
		r.OnData(func(chunk []byte) { got = append(got, chunk...) })
		r.Push([]byte("abc"))
		Expect(got).To(Equal([]byte("abc")))
	})

	It("emits end exactly once after push(nil) drains the buffer", func() {
		r := stream.NewReadable(stream.DefaultOptions(), nil)
		ends := 0
		r.On("end", func(...any) { ends++ })
		r.OnData(func([]byte) {})
		r.Push([]byte("x"))
		r.Push(nil)
		Expect(ends).To(Equal(1))
	})

	It("reports backpressure via false once highWaterMark is hit", func() {
		opts := stream.Options{HighWaterMark: 2}
		r := stream.NewReadable(opts, nil)
		ok := r.Push([]byte("abc"))
		Expect(ok).To(BeFalse())
	})

	It("emits end exactly once in paused mode once Read drains a push(nil)ed buffer", func() {
		r := stream.NewReadable(stream.DefaultOptions(), nil)
		ends := 0
		r.On("end", func(...any) { ends++ })
		r.Push([]byte("x"))
		r.Push(nil)
		Expect(ends).To(Equal(0), "end must not fire before the buffered chunk is read")

		Expect(r.Read(-1)).To(Equal([]byte("x")))
		Expect(ends).To(Equal(1))
		Expect(r.Ended()).To(BeTrue())
	})
})

var _ = Describe("Writable", func() {
	It("returns false once queued length reaches highWaterMark", func() {
		opts := stream.Options{HighWaterMark: 2}
		w := stream.NewWritable(opts, func(chunk []byte) error { return nil })
		ok := w.Write([]byte("abc"), nil)
		Expect(ok).To(BeFalse())
	})

	It("rejects writes after End with a write-after-end error", func() {
		w := stream.NewWritable(stream.DefaultOptions(), func(chunk []byte) error { return nil })
		w.End(nil, nil)
		var gotErr error
		w.Write([]byte("x"), func(err error) { gotErr = err })
		Expect(gotErr).To(HaveOccurred())
	})

	It("emits finish once all pending writes are delivered", func() {
		w := stream.NewWritable(stream.DefaultOptions(), func(chunk []byte) error { return nil })
		finished := false
		w.On("finish", func(...any) { finished = true })
		w.Write([]byte("a"), nil)
		w.End(nil, nil)
		Expect(finished).To(BeTrue())
		Expect(w.Finished()).To(BeTrue())
	})

	It("holds writes while corked and flushes them on uncork", func() {
		var delivered [][]byte
		w := stream.NewWritable(stream.DefaultOptions(), func(chunk []byte) error {
			delivered = append(delivered, chunk)
			return nil
		})
		w.Cork()
		w.Write([]byte("a"), nil)
		w.Write([]byte("b"), nil)
		Expect(delivered).To(BeEmpty())
		w.Uncork()
		Expect(delivered).To(HaveLen(2))
	})
})

var _ = Describe("Pipe", func() {
	It("preserves byte sequence through a chain of PassThroughs", func() {
		src := stream.NewReadable(stream.DefaultOptions(), nil)
		p1 := stream.NewPassThrough(stream.DefaultOptions())
		p2 := stream.NewPassThrough(stream.DefaultOptions())
		p3 := stream.NewPassThrough(stream.DefaultOptions())

		var out bytes.Buffer
		dest := stream.WrapWriter(stream.DefaultOptions(), &out)

		stream.Pipe(src, p1.Writable, true)
		stream.Pipe(p1.Readable, p2.Writable, true)
		stream.Pipe(p2.Readable, p3.Writable, true)
		stream.Pipe(p3.Readable, dest, true)

		src.Push([]byte("hello "))
		src.Push([]byte("world"))
		src.Push(nil)

		Expect(out.String()).To(Equal("hello world"))
	})
})

var _ = Describe("Transform", func() {
	It("applies the transform hook to each written chunk", func() {
		upper := stream.NewTransform(stream.DefaultOptions(), func(chunk []byte, push func([]byte), cb func(error)) {
			out := bytes.ToUpper(chunk)
			push(out)
			cb(nil)
		}, nil)

		var got []byte
		upper.OnData(func(chunk []byte) { got = append(got, chunk...) })
		upper.Write([]byte("abc"), nil)
		Expect(got).To(Equal([]byte("ABC")))
	})
})
