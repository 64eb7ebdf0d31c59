package health

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckDefaultsOverallServingUnsetServiceUnknown(t *testing.T) {
	s := NewState()
	require.Equal(t, Serving, s.Check(""))
	require.Equal(t, ServiceUnknown, s.Check("pkg.Unregistered"))
}

func TestSetThenCheckReportsLatestStatus(t *testing.T) {
	s := NewState()
	s.Set("pkg.Svc", NotServing)
	require.Equal(t, NotServing, s.Check("pkg.Svc"))
	s.Set("pkg.Svc", Serving)
	require.Equal(t, Serving, s.Check("pkg.Svc"))
}

func TestWatchEmitsCurrentStatusImmediately(t *testing.T) {
	s := NewState()
	s.Set("pkg.Svc", Serving)

	ch, cancel := s.Watch("pkg.Svc")
	defer cancel()

	require.Equal(t, Serving, <-ch)
}

func TestWatchEmitsOnTransition(t *testing.T) {
	s := NewState()
	ch, cancel := s.Watch("pkg.Svc")
	defer cancel()

	require.Equal(t, ServiceUnknown, <-ch)
	s.Set("pkg.Svc", Serving)
	require.Equal(t, Serving, <-ch)
}

func TestUnwatchClosesChannel(t *testing.T) {
	s := NewState()
	ch, cancel := s.Watch("pkg.Svc")
	<-ch
	cancel()
	_, ok := <-ch
	require.False(t, ok)
}
