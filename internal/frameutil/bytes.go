// Package frameutil holds the small big-endian helpers shared by the frame
// and hpack codecs.
package frameutil

// Uint24ToBytes writes the low 24 bits of n into b (big-endian).
func Uint24ToBytes(b []byte, n uint32) {
	_ = b[2] // bounds check hint
	b[0] = byte(n >> 16)
	b[1] = byte(n >> 8)
	b[2] = byte(n)
}

// BytesToUint24 reads a 24-bit big-endian integer from b.
func BytesToUint24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// Uint32ToBytes writes n into b (big-endian, 4 bytes).
func Uint32ToBytes(b []byte, n uint32) {
	_ = b[3]
	b[0] = byte(n >> 24)
	b[1] = byte(n >> 16)
	b[2] = byte(n >> 8)
	b[3] = byte(n)
}

// BytesToUint32 reads a big-endian uint32 from b, keeping all 32 bits.
func BytesToUint32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// BytesToUint31 reads a big-endian uint32 from b, dropping the reserved bit.
func BytesToUint31(b []byte) uint32 {
	return BytesToUint32(b) & (1<<31 - 1)
}

// AppendUint32 appends the big-endian encoding of n to dst.
func AppendUint32(dst []byte, n uint32) []byte {
	return append(dst, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

// Resize grows b (by reslicing spare capacity or allocating) to neededLen.
func Resize(b []byte, neededLen int) []byte {
	b = b[:cap(b)]
	if n := neededLen - len(b); n > 0 {
		b = append(b, make([]byte, n)...)
	}
	return b[:neededLen]
}
