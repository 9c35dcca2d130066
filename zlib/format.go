// Package zlib implements spec.md §4.6's compression subsystem: a
// synchronous path (deflate_sync/inflate_sync), an asynchronous path
// backed by a loop's worker pool, and a streaming Transform adapter, all
// built on github.com/klauspost/compress (the teacher's archive/compress
// package only wraps whole-algorithm readers/writers without raw-deflate
// or window-bits control, so zlib is grounded on that package's
// engine-composition idiom — an Algorithm-keyed factory feeding a shared
// engine — rather than on its literal compression code).
package zlib

import "jsrtgo/rterr"

// Format selects the wire framing, per spec.md §4.6: "format maps to
// window_bits adjustment: Gzip = +16; Raw = negate; AutoDetect = window_bits
// + 32 (inflate only)".
type Format int

const (
	Deflate Format = iota
	Gzip
	Raw
	AutoDetect
)

// Level mirrors zlib's compression-level constants.
type Level int

const (
	NoCompression      Level = 0
	BestSpeed          Level = 1
	BestCompression    Level = 9
	DefaultCompression Level = -1
)

// Strategy mirrors zlib's deflate strategy constants (accepted for
// compatibility; klauspost/compress's flate writer does not expose a
// strategy knob, so non-default values are accepted but have no effect).
type Strategy int

const (
	DefaultStrategy Strategy = iota
	Filtered
	HuffmanOnly
	RLE
	Fixed
)

// FlushMode mirrors zlib's flush constants. No function in this package
// takes one: the streaming Transform writes each chunk without an explicit
// flush and finishes the stream in its _flush hook.
type FlushMode int

const (
	NoFlush FlushMode = iota
	PartialFlush
	SyncFlush
	FullFlush
	Finish
)

// ReturnCode mirrors zlib's return-code constants for callers that want
// the raw status rather than a Go error.
type ReturnCode int

const (
	Ok           ReturnCode = 0
	StreamEnd    ReturnCode = 1
	NeedDict     ReturnCode = 2
	BufError     ReturnCode = -5
	DataError    ReturnCode = -3
	StreamError  ReturnCode = -2
	MemError     ReturnCode = -4
)

// Options configures one compress/decompress call, per spec.md §4.6.
//
// Dictionary is wired through to klauspost/compress's NewWriterDict/
// NewReaderDict family for Raw and Deflate framing (sync.go); Gzip framing
// has no preset-dictionary concept in the format itself, so Dictionary is
// ignored there. WindowBits and MemLevel, like Strategy above, have no
// klauspost/compress equivalent (window size is fixed by its pure-Go
// implementation and MemLevel is a zlib-C hash-table tuning knob with no
// analog here) — accepted for compatibility but without effect.
type Options struct {
	Level      Level
	WindowBits int
	MemLevel   int
	Strategy   Strategy
	Dictionary []byte
	ChunkSize  int
}

// DefaultOptions matches zlib's conventional defaults.
func DefaultOptions() Options {
	return Options{Level: DefaultCompression, WindowBits: 15, MemLevel: 8, ChunkSize: 16 * 1024}
}

var errInvalidFormat = rterr.New(rterr.RangeErr, "invalid zlib format")
