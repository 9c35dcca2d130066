package zlib

import (
	"hash/crc32"
)

// adler32Mod is the prime modulus of the Adler-32 algorithm (RFC 1950).
const adler32Mod = 65521

// CRC32 delegates to the standard library's hash/crc32 (IEEE table);
// Adler32 is computed directly here with the RFC 1950 recurrence. Neither
// uses a third-party checksum library. Both take an optional continuation
// value per spec.md §4.6's
// `crc32(buf, [init])`/`adler32(buf, [init])`, so chunked hashing can be
// composed from repeated calls seeded with the previous chunk's result.
func CRC32(data []byte, init ...uint32) uint32 {
	var seed uint32
	if len(init) > 0 {
		seed = init[0]
	}
	return crc32.Update(seed, crc32.IEEETable, data)
}

func Adler32(data []byte, init ...uint32) uint32 {
	a, b := uint32(1), uint32(0)
	if len(init) > 0 {
		seed := init[0]
		a, b = seed&0xffff, seed>>16
	}
	for _, c := range data {
		a = (a + uint32(c)) % adler32Mod
		b = (b + a) % adler32Mod
	}
	return b<<16 | a
}
