package grpchost

import (
	"testing"

	"github.com/grpchost/grpchost/codec"
	"github.com/stretchr/testify/require"
)

func newEchoMethod() *MethodDescriptor {
	return &MethodDescriptor{
		Name:          "Echo",
		Kind:          Unary,
		RequestCodec:  codec.JSON,
		ResponseCodec: codec.JSON,
		NewRequest:    func() any { return new(map[string]any) },
		Unary: func(ctx *Context, req any) (any, error) {
			return req, nil
		},
	}
}

func TestRegistryLookupResolvesServiceAndMethod(t *testing.T) {
	r := NewRegistry()
	svc := (&ServiceDescriptor{Name: "pkg.Echoer"}).AddMethod(newEchoMethod())
	require.NoError(t, r.Register(svc))

	gotSvc, gotMethod, ok := r.Lookup("/pkg.Echoer/Echo")
	require.True(t, ok)
	require.Same(t, svc, gotSvc)
	require.Equal(t, "Echo", gotMethod.Name)
}

func TestRegistryLookupUnknownMethod(t *testing.T) {
	r := NewRegistry()
	svc := (&ServiceDescriptor{Name: "pkg.Echoer"}).AddMethod(newEchoMethod())
	require.NoError(t, r.Register(svc))

	_, _, ok := r.Lookup("/pkg.Echoer/Nope")
	require.False(t, ok)
}

func TestRegistryLookupUnknownService(t *testing.T) {
	r := NewRegistry()
	_, _, ok := r.Lookup("/pkg.Nope/Echo")
	require.False(t, ok)
}

func TestRegistryLookupMalformedPath(t *testing.T) {
	r := NewRegistry()
	_, _, ok := r.Lookup("/just-a-service")
	require.False(t, ok)
}

func TestRegistryFreezeRejectsFurtherRegistration(t *testing.T) {
	r := NewRegistry()
	r.Freeze()
	err := r.Register(&ServiceDescriptor{Name: "pkg.Late"})
	require.Error(t, err)
}

func TestRegistryServicesListsRegisteredNames(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&ServiceDescriptor{Name: "pkg.A"}))
	require.NoError(t, r.Register(&ServiceDescriptor{Name: "pkg.B"}))
	require.ElementsMatch(t, []string{"pkg.A", "pkg.B"}, r.Services())
}
