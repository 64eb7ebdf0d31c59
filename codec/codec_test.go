package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type codecFixture struct {
	A string `json:"a"`
	B int    `json:"b"`
}

func TestJSONRoundTrip(t *testing.T) {
	b, err := JSON.Marshal(codecFixture{A: "x", B: 1})
	require.NoError(t, err)

	var got codecFixture
	require.NoError(t, JSON.Unmarshal(b, &got))
	require.Equal(t, codecFixture{A: "x", B: 1}, got)
}

func TestRawRoundTrip(t *testing.T) {
	b, err := Raw.Marshal([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), b)

	var got []byte
	require.NoError(t, Raw.Unmarshal(b, &got))
	require.Equal(t, []byte("hello"), got)
}

func TestRawRejectsWrongType(t *testing.T) {
	_, err := Raw.Marshal("not bytes")
	require.Error(t, err)
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()

	c, ok := r.Lookup("")
	require.True(t, ok)
	require.Equal(t, "json", c.Name())

	c, ok = r.Lookup("json")
	require.True(t, ok)
	require.Equal(t, "json", c.Name())

	_, ok = r.Lookup("proto")
	require.False(t, ok)
}

func TestRegistrySetDefault(t *testing.T) {
	r := NewRegistry()
	r.SetDefault(Raw)

	c, ok := r.Lookup("")
	require.True(t, ok)
	require.Equal(t, "raw", c.Name())
}
