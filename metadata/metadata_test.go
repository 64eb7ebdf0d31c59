package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetIsCaseInsensitive(t *testing.T) {
	md := MD{}
	md.Append("X-Request-Id", "abc")
	require.Equal(t, []string{"abc"}, md.Get("x-request-id"))
}

func TestIncomingContextRoundTrip(t *testing.T) {
	md := New(map[string]string{"x-custom": "1"})
	ctx := NewIncomingContext(context.Background(), md)

	got, ok := FromIncomingContext(ctx)
	require.True(t, ok)
	require.Equal(t, []string{"1"}, got.Get("x-custom"))
}

func TestIsBinaryKey(t *testing.T) {
	require.True(t, IsBinaryKey("trace-bin"))
	require.True(t, IsBinaryKey("Trace-BIN"))
	require.False(t, IsBinaryKey("trace"))
}

func TestIsReserved(t *testing.T) {
	require.True(t, IsReserved(":path"))
	require.True(t, IsReserved("grpc-timeout"))
	require.True(t, IsReserved("content-type"))
	require.False(t, IsReserved("x-custom"))
}

func TestCloneIsIndependent(t *testing.T) {
	md := New(map[string]string{"a": "1"})
	cp := md.Clone()
	cp.Append("a", "2")
	require.Equal(t, []string{"1"}, md.Get("a"))
	require.Equal(t, []string{"1", "2"}, cp.Get("a"))
}
