package hpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	enc := NewEncoder(4096)
	dec := NewDecoder(4096)

	fields := []HeaderField{
		{Name: ":method", Value: "POST"},
		{Name: ":scheme", Value: "https"},
		{Name: ":path", Value: "/echo.Echo/Echo"},
		{Name: ":authority", Value: "example.com"},
		{Name: "content-type", Value: "application/grpc"},
		{Name: "te", Value: "trailers"},
		{Name: "x-custom", Value: "custom-value"},
	}

	block := enc.EncodeList(nil, fields)
	got, err := dec.DecodeFull(block)
	require.NoError(t, err)
	require.Equal(t, fields, got)
}

func TestEncodeDecodeSequentialState(t *testing.T) {
	enc := NewEncoder(4096)
	dec := NewDecoder(4096)

	first := []HeaderField{{Name: "x-request-id", Value: "1"}}
	second := []HeaderField{{Name: "x-request-id", Value: "2"}}

	b1 := enc.EncodeList(nil, first)
	b2 := enc.EncodeList(nil, second)

	got1, err := dec.DecodeFull(b1)
	require.NoError(t, err)
	require.Equal(t, first, got1)

	got2, err := dec.DecodeFull(b2)
	require.NoError(t, err)
	require.Equal(t, second, got2)
}

func TestNeverIndexedSensitiveHeaders(t *testing.T) {
	enc := NewEncoder(4096)
	dec := NewDecoder(4096)

	fields := []HeaderField{
		{Name: "authorization", Value: "Bearer secret-token"},
		{Name: "cookie", Value: "session=abc"},
	}

	block := enc.EncodeList(nil, fields)
	// never-indexed representation starts with 0001xxxx
	require.Equal(t, byte(0x10), block[0]&0xf0)

	got, err := dec.DecodeFull(block)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.True(t, got[0].Sensitive)
	require.True(t, got[1].Sensitive)

	// sensitive fields are never inserted into the dynamic table
	require.Equal(t, 0, enc.table.Len())
}

func TestStaticTableIndexedField(t *testing.T) {
	dec := NewDecoder(4096)
	// RFC 7541 C.3.1 fixture: indexed ":method: GET", ":scheme: http",
	// ":path: /", literal-with-indexing ":authority: www.example.com".
	block := []byte{
		0x82, 0x86, 0x84, 0x41,
		0x0f, 'w', 'w', 'w', '.', 'e', 'x', 'a', 'm', 'p', 'l', 'e', '.', 'c', 'o', 'm',
	}

	got, err := dec.DecodeFull(block)
	require.NoError(t, err)
	require.Equal(t, []HeaderField{
		{Name: ":method", Value: "GET"},
		{Name: ":scheme", Value: "http"},
		{Name: ":path", Value: "/"},
		{Name: ":authority", Value: "www.example.com"},
	}, got)
}

func TestDynamicTableEvictionInvariant(t *testing.T) {
	table := newDynamicTable(64)
	for i := 0; i < 20; i++ {
		table.Insert(HeaderField{Name: "k", Value: "0123456789"})
		require.LessOrEqual(t, table.Size(), 64)
	}
}

func TestDynamicTableSizeUpdateEvicts(t *testing.T) {
	enc := NewEncoder(4096)
	for i := 0; i < 5; i++ {
		enc.AppendField(nil, HeaderField{Name: "x", Value: "0123456789012345678901234567890"})
	}
	require.Greater(t, enc.table.Size(), 0)

	var dst []byte
	dst = enc.SetMaxTableSize(dst, 0)
	require.Equal(t, 0, enc.table.Size())
	require.NotEmpty(t, dst)
}

func TestDecoderRejectsOversizedTableUpdate(t *testing.T) {
	dec := NewDecoder(100)
	block := appendSizeUpdate(nil, 200)
	_, err := dec.DecodeFull(block)
	require.ErrorIs(t, err, ErrTableSizeUpdateTooLarge)
}

func TestDecoderRejectsSizeUpdateAfterField(t *testing.T) {
	dec := NewDecoder(4096)
	var block []byte
	block = append(block, 0x82) // indexed :method GET
	block = appendSizeUpdate(block, 10)

	_, err := dec.DecodeFull(block)
	require.ErrorIs(t, err, ErrTableSizeUpdateNotAtStart)
}

func TestDecoderRejectsUnknownIndex(t *testing.T) {
	dec := NewDecoder(4096)
	_, err := dec.DecodeFull([]byte{0xff, 0x00})
	require.Error(t, err)
}
