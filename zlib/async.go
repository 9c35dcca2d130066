package zlib

import "jsrtgo/loop"

// Deflate queues a compression job to l's worker pool and invokes cb on the
// loop goroutine with (err, output), per spec.md §4.6's asynchronous path.
// input is copied before queuing since "the caller's buffer is not pinned
// for worker-thread duration".
func Deflate(l *loop.Loop, input []byte, opts Options, format Format, cb func(err error, output []byte)) {
	cp := make([]byte, len(input))
	copy(cp, input)

	l.QueueWork(func() any {
		out, err := DeflateSync(cp, opts, format)
		if err != nil {
			return err
		}
		return out
	}, func(result any) {
		if err, ok := result.(error); ok {
			cb(err, nil)
			return
		}
		cb(nil, result.([]byte))
	})
}

// Inflate queues a decompression job to l's worker pool, mirroring Deflate.
func Inflate(l *loop.Loop, input []byte, opts Options, format Format, cb func(err error, output []byte)) {
	cp := make([]byte, len(input))
	copy(cp, input)

	l.QueueWork(func() any {
		out, err := InflateSync(cp, opts, format)
		if err != nil {
			return err
		}
		return out
	}, func(result any) {
		if err, ok := result.(error); ok {
			cb(err, nil)
			return
		}
		cb(nil, result.([]byte))
	})
}
