package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReassemblerSingleMessage(t *testing.T) {
	r := NewReassembler()
	frame := AppendMessage(nil, []byte("hello"), false)

	msgs, err := r.Feed(frame)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "hello", string(msgs[0].Data))
	require.False(t, msgs[0].Compressed)
	require.False(t, r.Pending())
}

func TestReassemblerSplitAcrossFeeds(t *testing.T) {
	r := NewReassembler()
	frame := AppendMessage(nil, []byte("hello world"), false)

	msgs, err := r.Feed(frame[:4])
	require.NoError(t, err)
	require.Empty(t, msgs)
	require.True(t, r.Pending())

	msgs, err = r.Feed(frame[4:])
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "hello world", string(msgs[0].Data))
}

func TestReassemblerMultipleMessagesOneFeed(t *testing.T) {
	r := NewReassembler()
	var buf []byte
	buf = AppendMessage(buf, []byte("a"), false)
	buf = AppendMessage(buf, []byte("bb"), true)

	msgs, err := r.Feed(buf)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "a", string(msgs[0].Data))
	require.False(t, msgs[0].Compressed)
	require.Equal(t, "bb", string(msgs[1].Data))
	require.True(t, msgs[1].Compressed)
}

func TestReassemblerRejectsOversizedMessage(t *testing.T) {
	r := NewReassembler()
	r.SetMaxMessageSize(4)
	frame := AppendMessage(nil, []byte("toolong"), false)

	_, err := r.Feed(frame)
	require.ErrorIs(t, err, ErrMessageTooLarge)
}
