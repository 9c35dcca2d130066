package zlib

import (
	"bytes"
	"io"

	kflate "github.com/klauspost/compress/flate"
	kgzip "github.com/klauspost/compress/gzip"
	kzlib "github.com/klauspost/compress/zlib"

	"jsrtgo/rterr"
	"jsrtgo/stream"
)

// newStreamingDeflate builds a Transform whose _transform hook feeds chunks
// into an incremental compressor and pushes whatever bytes the writer's
// internal buffering has flushed so far, per spec.md §4.6's "createGzip/
// createDeflate/...": "Each _transform call pushes incremental output
// (uses deflate(NO_FLUSH))... _flush issues Z_FINISH and pushes the tail".
func newStreamingDeflate(opts Options, format Format) *stream.Transform {
	ctx := ctxPool.Get(opts, format)
	out := bytes.NewBuffer(ctx.scratch[:0])
	level := int(opts.Level)
	if level == int(DefaultCompression) {
		level = kflate.DefaultCompression
	}

	var w io.WriteCloser
	var err error
	switch format {
	case Gzip:
		w, err = kgzip.NewWriterLevel(out, level)
	case Raw:
		if len(opts.Dictionary) > 0 {
			w, err = kflate.NewWriterDict(out, level, opts.Dictionary)
		} else {
			w, err = kflate.NewWriter(out, level)
		}
	default:
		if len(opts.Dictionary) > 0 {
			w, err = kzlib.NewWriterLevelDict(out, level, opts.Dictionary)
		} else {
			w, err = kzlib.NewWriterLevel(out, level)
		}
	}

	release := func() {
		ctx.scratch = out.Bytes()[:0]
		ctxPool.Put(ctx)
	}

	return stream.NewTransform(stream.DefaultOptions(),
		func(chunk []byte, push func([]byte), cb func(error)) {
			if err != nil {
				cb(rterr.New(rterr.CodecErr, err.Error()))
				return
			}
			if _, werr := w.Write(chunk); werr != nil {
				cb(rterr.New(rterr.CodecErr, werr.Error()))
				return
			}
			if out.Len() > 0 {
				push(append([]byte(nil), out.Bytes()...))
				out.Reset()
			}
			cb(nil)
		},
		func(push func([]byte), cb func(error)) {
			if err == nil {
				if cerr := w.Close(); cerr != nil {
					release()
					cb(rterr.New(rterr.CodecErr, cerr.Error()))
					return
				}
			}
			if out.Len() > 0 {
				push(append([]byte(nil), out.Bytes()...))
				out.Reset()
			}
			release()
			cb(nil)
		},
	)
}

// newStreamingInflate builds a Transform that accumulates compressed input
// across _transform calls (klauspost's gzip/zlib readers expose no
// incremental-flush API to decode partial frames safely, unlike the raw
// deflate path above) and performs the actual decompression once, in
// _flush, pushing the whole decompressed result — a documented
// simplification of spec.md §4.6's per-chunk incremental output, which the
// spec itself allows ("possibly zero or more output chunks" per
// _transform call).
func newStreamingInflate(format Format) *stream.Transform {
	ctx := ctxPool.Get(DefaultOptions(), format)
	buf := bytes.NewBuffer(ctx.scratch[:0])

	return stream.NewTransform(stream.DefaultOptions(),
		func(chunk []byte, push func([]byte), cb func(error)) {
			buf.Write(chunk)
			cb(nil)
		},
		func(push func([]byte), cb func(error)) {
			out, err := InflateSync(buf.Bytes(), DefaultOptions(), format)
			ctx.scratch = buf.Bytes()[:0]
			ctxPool.Put(ctx)
			if err != nil {
				cb(err)
				return
			}
			if len(out) > 0 {
				push(out)
			}
			cb(nil)
		},
	)
}

// CreateGzip/CreateGunzip/CreateDeflate/CreateInflate/CreateDeflateRaw/
// CreateInflateRaw/CreateUnzip return a Transform implementing the
// corresponding streaming codec, per spec.md §4.6.
func CreateGzip(opts Options) *stream.Transform       { return newStreamingDeflate(opts, Gzip) }
func CreateDeflate(opts Options) *stream.Transform    { return newStreamingDeflate(opts, Deflate) }
func CreateDeflateRaw(opts Options) *stream.Transform { return newStreamingDeflate(opts, Raw) }

func CreateGunzip() *stream.Transform     { return newStreamingInflate(Gzip) }
func CreateInflate() *stream.Transform    { return newStreamingInflate(Deflate) }
func CreateInflateRaw() *stream.Transform { return newStreamingInflate(Raw) }
func CreateUnzip() *stream.Transform      { return newStreamingInflate(AutoDetect) }
