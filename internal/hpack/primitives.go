package hpack

import "errors"

// ErrIntegerOverflow guards against a maliciously long continuation byte
// sequence in an HPACK integer (spec.md §4.B failure clause).
var ErrIntegerOverflow = errors.New("hpack: integer representation overflow")

// ErrTruncated is returned when the input ends before a representation is
// fully decoded.
var ErrTruncated = errors.New("hpack: truncated input")

// appendInt appends the RFC 7541 §5.1 integer representation of i, using
// an N-bit prefix in a freshly appended byte whose top (8-N) bits are left
// zero; callers OR their representation flags into that first byte
// afterwards.
func appendInt(dst []byte, n uint, i uint64) []byte {
	max := uint64(1<<n) - 1
	if i < max {
		return append(dst, byte(i))
	}

	dst = append(dst, byte(max))
	i -= max
	for i >= 128 {
		dst = append(dst, byte(0x80|(i&0x7f)))
		i >>= 7
	}
	return append(dst, byte(i))
}

// readInt decodes an RFC 7541 §5.1 integer with an N-bit prefix from b,
// returning the remaining bytes and the value.
func readInt(n uint, b []byte) (rest []byte, value uint64, err error) {
	if len(b) == 0 {
		return b, 0, ErrTruncated
	}
	max := uint64(1<<n) - 1
	value = uint64(b[0]) & max
	if value < max {
		return b[1:], value, nil
	}

	var shift uint
	i := 1
	for {
		if i >= len(b) {
			return b, 0, ErrTruncated
		}
		c := b[i]
		i++
		value += uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			break
		}
		shift += 7
		if shift > 63 {
			return b, 0, ErrIntegerOverflow
		}
	}
	return b[i:], value, nil
}

// appendString appends the RFC 7541 §5.2 string representation of s:
// Huffman is used only when it is strictly smaller than the literal form
// (spec.md §4.B: "An encoder MAY choose Huffman when it strictly reduces
// size").
func appendString(dst []byte, s string) []byte {
	src := []byte(s)
	hlen := huffmanEncodedLen(src)

	if hlen < len(src) {
		n := len(dst)
		dst = appendInt(dst, 7, uint64(hlen))
		dst[n] |= 0x80
		return appendHuffman(dst, src)
	}

	dst = appendInt(dst, 7, uint64(len(src)))
	return append(dst, src...)
}

// readString decodes an RFC 7541 §5.2 string from b, returning the
// remaining bytes and the decoded value.
func readString(b []byte) (rest []byte, value string, err error) {
	if len(b) == 0 {
		return b, "", ErrTruncated
	}
	huff := b[0]&0x80 != 0

	b, length, err := readInt(7, b)
	if err != nil {
		return b, "", err
	}
	if uint64(len(b)) < length {
		return b, "", ErrTruncated
	}

	raw := b[:length]
	rest = b[length:]

	if !huff {
		return rest, string(raw), nil
	}

	dec, derr := huffmanDecode(make([]byte, 0, length*2), raw)
	if derr != nil {
		return rest, "", derr
	}
	return rest, string(dec), nil
}
