package grpchost

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewServerAppliesDefaultsAndValidates(t *testing.T) {
	srv, err := NewServer(ServerOptions{MaxMessageSize: -1}, nil)
	require.Error(t, err)
	require.Nil(t, srv)
}

func TestNewServerRegistersHealthAndReflectionWhenEnabled(t *testing.T) {
	opts := DefaultOptions()
	opts.EnableHealthCheck = true
	opts.EnableReflection = true
	srv, err := NewServer(opts, nil)
	require.NoError(t, err)

	_, ok := srv.registry.Service(HealthServiceName)
	require.True(t, ok)
	_, ok = srv.registry.Service(ReflectionServiceName)
	require.True(t, ok)
}

func TestNewServerSkipsBuiltinsWhenDisabled(t *testing.T) {
	srv, err := NewServer(DefaultOptions(), nil)
	require.NoError(t, err)

	_, ok := srv.registry.Service(HealthServiceName)
	require.False(t, ok)
}

func TestRegisterRejectedOnceNotStopped(t *testing.T) {
	srv, err := NewServer(DefaultOptions(), nil)
	require.NoError(t, err)

	srv.mu.Lock()
	srv.state = Running
	srv.mu.Unlock()

	err = srv.Register(&ServiceDescriptor{Name: "pkg.Late"})
	require.Error(t, err)
}

func TestInterceptorsForCombinesGlobalAndServiceScoped(t *testing.T) {
	srv, err := NewServer(DefaultOptions(), nil)
	require.NoError(t, err)

	var order []string
	require.NoError(t, srv.AddInterceptor(markerInterceptor("global", &order)))
	require.NoError(t, srv.AddInterceptor(markerInterceptor("scoped", &order), "pkg.Svc"))

	ics := srv.interceptorsFor("pkg.Svc")
	require.Len(t, ics, 2)

	other := srv.interceptorsFor("pkg.Other")
	require.Len(t, other, 1)
}

func TestSetHealthAndGetHealthRoundTrip(t *testing.T) {
	srv, err := NewServer(DefaultOptions(), nil)
	require.NoError(t, err)

	srv.SetHealth("pkg.Svc", HealthServing)
	require.Equal(t, HealthServing, srv.GetHealth("pkg.Svc"))
}
