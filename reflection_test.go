package grpchost

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func serverWithDescriptor(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(DefaultOptions(), nil)
	require.NoError(t, err)

	svc := &ServiceDescriptor{Name: "pkg.Greeter", FileDescriptor: []byte("descriptor-bytes")}
	require.NoError(t, srv.registry.Register(svc))
	return srv
}

func TestHandleReflectionRequestListServices(t *testing.T) {
	srv := serverWithDescriptor(t)
	resp := handleReflectionRequest(srv, &ReflectionRequest{ListServices: "*"})
	require.Equal(t, []string{"pkg.Greeter"}, resp.ServiceNames)
	require.Nil(t, resp.Error)
}

func TestHandleReflectionRequestFileContainingSymbolFound(t *testing.T) {
	srv := serverWithDescriptor(t)
	resp := handleReflectionRequest(srv, &ReflectionRequest{FileContainingSymbol: "pkg.Greeter.SayHello"})
	require.Equal(t, [][]byte{[]byte("descriptor-bytes")}, resp.FileDescriptors)
	require.Nil(t, resp.Error)
}

func TestHandleReflectionRequestFileContainingSymbolNotFound(t *testing.T) {
	srv := serverWithDescriptor(t)
	resp := handleReflectionRequest(srv, &ReflectionRequest{FileContainingSymbol: "pkg.Unknown"})
	require.NotNil(t, resp.Error)
	require.EqualValues(t, 5, resp.Error.Code)
}

func TestHandleReflectionRequestFileByFilename(t *testing.T) {
	srv := serverWithDescriptor(t)
	resp := handleReflectionRequest(srv, &ReflectionRequest{FileByFilename: "pkg/greeter.proto"})
	require.Equal(t, [][]byte{[]byte("descriptor-bytes")}, resp.FileDescriptors)
}

func TestHandleReflectionRequestFileByFilenameNotFound(t *testing.T) {
	srv, err := NewServer(DefaultOptions(), nil)
	require.NoError(t, err)
	resp := handleReflectionRequest(srv, &ReflectionRequest{FileByFilename: "missing.proto"})
	require.NotNil(t, resp.Error)
}
