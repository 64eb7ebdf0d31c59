package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentityIsNoOp(t *testing.T) {
	data := []byte("hello")
	compressed, err := Identity.Compress(data)
	require.NoError(t, err)
	require.Equal(t, data, compressed)

	decompressed, err := Identity.Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, data, decompressed)
}

func TestGzipRoundTrip(t *testing.T) {
	data := []byte("hello, gzip compressed gRPC message payload")
	compressed, err := Gzip.Compress(data)
	require.NoError(t, err)
	require.NotEqual(t, data, compressed)

	decompressed, err := Gzip.Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, data, decompressed)
}

func TestCompressorRegistryLookup(t *testing.T) {
	r := NewCompressorRegistry()

	c, ok := r.Lookup("")
	require.True(t, ok)
	require.Equal(t, "identity", c.Name())

	c, ok = r.Lookup("gzip")
	require.True(t, ok)
	require.Equal(t, "gzip", c.Name())

	_, ok = r.Lookup("brotli")
	require.False(t, ok)
}
