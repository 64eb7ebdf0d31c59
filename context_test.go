package grpchost

import (
	"context"
	"testing"
	"time"

	"github.com/grpchost/grpchost/metadata"
	"github.com/stretchr/testify/require"
)

func TestParseGRPCTimeoutUnits(t *testing.T) {
	cases := map[string]time.Duration{
		"10S":  10 * time.Second,
		"5M":   5 * time.Minute,
		"1H":   time.Hour,
		"250m": 250 * time.Millisecond,
		"9u":   9 * time.Microsecond,
		"3n":   3 * time.Nanosecond,
	}
	for in, want := range cases {
		got, err := ParseGRPCTimeout(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestParseGRPCTimeoutRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "S", "10X", "abcS"} {
		_, err := ParseGRPCTimeout(in)
		require.Error(t, err, in)
	}
}

func TestNewContextWithoutTimeoutHasNoDeadline(t *testing.T) {
	ctx := NewContext(context.Background(), "/pkg.Svc/Method", "127.0.0.1:1234", metadata.MD{})
	_, ok := ctx.Deadline()
	require.False(t, ok)
	require.NotEmpty(t, ctx.RequestID)
}

func TestNewContextParsesGRPCTimeout(t *testing.T) {
	incoming := metadata.MD{}
	incoming.Append("grpc-timeout", "100S")
	ctx := NewContext(context.Background(), "/pkg.Svc/Method", "127.0.0.1:1234", incoming)

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(100*time.Second), deadline, time.Second)
}

func TestContextCancelMarksCancelled(t *testing.T) {
	ctx := NewContext(context.Background(), "/pkg.Svc/Method", "127.0.0.1:1234", metadata.MD{})
	require.False(t, ctx.Cancelled())
	ctx.Cancel()
	require.True(t, ctx.Cancelled())
}

func TestSetHeaderAndTrailerAppend(t *testing.T) {
	ctx := NewContext(context.Background(), "/pkg.Svc/Method", "127.0.0.1:1234", metadata.MD{})
	ctx.SetHeader("x-custom", "a")
	ctx.SetHeader("x-custom", "b")
	ctx.SetTrailer("x-trailer", "c")

	require.Equal(t, []string{"a", "b"}, ctx.ResponseHeaders.Get("x-custom"))
	require.Equal(t, []string{"c"}, ctx.ResponseTrailers.Get("x-trailer"))
}
