package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenByHeadersTransitions(t *testing.T) {
	s := New(1, 1<<16, 1<<16)
	require.Equal(t, StateIdle, s.State())

	require.NoError(t, s.OpenByHeaders(false))
	require.Equal(t, StateOpen, s.State())
}

func TestOpenByHeadersWithEndStreamHalfCloses(t *testing.T) {
	s := New(1, 1<<16, 1<<16)
	require.NoError(t, s.OpenByHeaders(true))
	require.Equal(t, StateHalfClosedRemote, s.State())
}

func TestOpenByHeadersRejectsNonIdle(t *testing.T) {
	s := New(1, 1<<16, 1<<16)
	require.NoError(t, s.OpenByHeaders(false))
	require.Error(t, s.OpenByHeaders(false))
}

func TestFullRequestResponseLifecycle(t *testing.T) {
	s := New(1, 1<<16, 1<<16)
	require.NoError(t, s.OpenByHeaders(false))
	require.NoError(t, s.RecvEndStream())
	require.Equal(t, StateHalfClosedRemote, s.State())

	require.NoError(t, s.SendEndStream())
	require.Equal(t, StateClosed, s.State())
	require.False(t, s.IsOpen())
}

func TestSendWindowAccounting(t *testing.T) {
	s := New(1, 100, 100)
	s.ConsumeSendWindow(40)
	require.EqualValues(t, 60, s.SendWindow())

	w, err := s.AddSendWindow(10)
	require.NoError(t, err)
	require.EqualValues(t, 70, w)
}

func TestRecvWindowExceededIsFlowControlError(t *testing.T) {
	s := New(1, 100, 50)
	require.NoError(t, s.ConsumeRecvWindow(50))
	require.Error(t, s.ConsumeRecvWindow(1))
}

func TestReplenishRecvWindow(t *testing.T) {
	s := New(1, 100, 50)
	require.NoError(t, s.ConsumeRecvWindow(50))
	s.ReplenishRecvWindow(50)
	require.EqualValues(t, 50, s.RecvWindow())
}
