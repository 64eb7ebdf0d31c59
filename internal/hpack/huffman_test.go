package hpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHuffmanRoundTripAllBytes(t *testing.T) {
	src := make([]byte, 256)
	for i := range src {
		src[i] = byte(i)
	}

	enc := appendHuffman(nil, src)
	dec, err := huffmanDecode(nil, enc)
	require.NoError(t, err)
	require.Equal(t, src, dec)
}

func TestHuffmanRoundTripStrings(t *testing.T) {
	cases := []string{
		"",
		"www.example.com",
		"application/grpc",
		"grpc-status",
		"a very long header value that repeats a lot a lot a lot a lot",
	}

	for _, s := range cases {
		enc := appendHuffman(nil, []byte(s))
		dec, err := huffmanDecode(nil, enc)
		require.NoError(t, err)
		require.Equal(t, s, string(dec))
	}
}

func TestHuffmanPaddingIsAllOnes(t *testing.T) {
	enc := appendHuffman(nil, []byte("a"))
	// "a" is 5 bits (huffmanTable['a'] = {0x3, 5}); the trailing 3 bits of
	// the final byte must be padding set to 1.
	require.Equal(t, byte(0x07), enc[len(enc)-1]&0x07)
}

func TestHuffmanRejectsBadPadding(t *testing.T) {
	enc := appendHuffman(nil, []byte("a"))
	// Flip the padding bits to zero: no longer a valid EOS prefix.
	enc[len(enc)-1] &^= 0x07
	_, err := huffmanDecode(nil, enc)
	require.ErrorIs(t, err, ErrInvalidHuffman)
}

func TestAppendStringPrefersShorterRepresentation(t *testing.T) {
	// "aaaaaaaaaa" Huffman-compresses well below its literal length.
	dst := appendString(nil, "aaaaaaaaaa")
	require.NotZero(t, dst[0]&0x80, "expected huffman flag bit set")
}
