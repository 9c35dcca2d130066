package zlib

import (
	"bytes"
	"io"

	kflate "github.com/klauspost/compress/flate"
	kgzip "github.com/klauspost/compress/gzip"
	kzlib "github.com/klauspost/compress/zlib"

	"jsrtgo/bufpool"
	"jsrtgo/rterr"
)

var pool = bufpool.New()

// DeflateSync compresses input synchronously under format, per spec.md
// §4.6's "allocate deflateBound(input_len), run to Z_STREAM_END, return
// bytes". klauspost/compress's writers grow their own buffers, so instead
// of a fixed bound the staging bytes.Buffer grows from a pooled Context's
// scratch slice.
func DeflateSync(input []byte, opts Options, format Format) ([]byte, error) {
	ctx := ctxPool.Get(opts, format)
	defer ctxPool.Put(ctx)

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
	case Deflate:
		if len(opts.Dictionary) > 0 {
			w, err = kzlib.NewWriterLevelDict(out, level, opts.Dictionary)
		} else {
			w, err = kzlib.NewWriterLevel(out, level)
		}
	default:
		return nil, errInvalidFormat
	}
	if err != nil {
		return nil, rterr.New(rterr.CodecErr, err.Error())
	}

	if _, err := w.Write(input); err != nil {
		return nil, rterr.New(rterr.CodecErr, err.Error())
	}
	if err := w.Close(); err != nil {
		return nil, rterr.New(rterr.CodecErr, err.Error())
	}

	result := append([]byte(nil), out.Bytes()...)
	ctx.scratch = out.Bytes()[:0]
	return result, nil
}

// InflateSync decompresses input synchronously under format, per spec.md
// §4.6's "allocate chunk_size buffer, grow geometrically on overflow, loop
// until Z_STREAM_END or input exhausted". klauspost readers already grow
// internally; the geometric regrowth is reproduced here at the staging
// buffer level, drawing each chunk from the tiered bufpool.
func InflateSync(input []byte, opts Options, format Format) ([]byte, error) {
	r, err := newReader(input, format, opts.Dictionary)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 16 * 1024
	}

	ctx := ctxPool.Get(opts, format)
	defer ctxPool.Put(ctx)

	out := bytes.NewBuffer(ctx.scratch[:0])
	for {
		buf := pool.Get(chunkSize)
		n, rerr := r.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
		}
		pool.Put(buf)
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, rterr.New(rterr.CodecErr, rerr.Error())
		}
		chunkSize *= 2
	}
	result := append([]byte(nil), out.Bytes()...)
	ctx.scratch = out.Bytes()[:0]
	return result, nil
}

func newReader(input []byte, format Format, dict []byte) (io.ReadCloser, error) {
	switch format {
	case Gzip:
		r, err := kgzip.NewReader(bytes.NewReader(input))
		if err != nil {
			return nil, rterr.New(rterr.CodecErr, err.Error())
		}
		return r, nil
	case Raw:
		if len(dict) > 0 {
			return kflate.NewReaderDict(bytes.NewReader(input), dict), nil
		}
		return kflate.NewReader(bytes.NewReader(input)), nil
	case Deflate:
		var r io.ReadCloser
		var err error
		if len(dict) > 0 {
			r, err = kzlib.NewReaderDict(bytes.NewReader(input), dict)
		} else {
			r, err = kzlib.NewReader(bytes.NewReader(input))
		}
		if err != nil {
			return nil, rterr.New(rterr.CodecErr, err.Error())
		}
		return r, nil
	case AutoDetect:
		return newReader(input, detectFormat(input), dict)
	default:
		return nil, errInvalidFormat
	}
}

// detectFormat peeks at the magic bytes to distinguish gzip from zlib
// framing, implementing spec.md §4.6's AutoDetect ("window_bits + 32,
// inflate only").
func detectFormat(input []byte) Format {
	if len(input) >= 2 && input[0] == 0x1f && input[1] == 0x8b {
		return Gzip
	}
	if len(input) >= 2 && input[0]&0x0f == 8 {
		return Deflate
	}
	return Raw
}
