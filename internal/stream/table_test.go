package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableInsertGetDel(t *testing.T) {
	tb := NewTable()
	tb.Insert(New(3, 0, 0))
	tb.Insert(New(1, 0, 0))
	tb.Insert(New(5, 0, 0))

	require.Equal(t, 3, tb.Len())
	require.EqualValues(t, 3, tb.Get(3).ID())
	require.Nil(t, tb.Get(7))

	got := tb.Del(3)
	require.EqualValues(t, 3, got.ID())
	require.Equal(t, 2, tb.Len())
	require.Nil(t, tb.Get(3))
}

func TestTableRangeOrdersByID(t *testing.T) {
	tb := NewTable()
	tb.Insert(New(5, 0, 0))
	tb.Insert(New(1, 0, 0))
	tb.Insert(New(3, 0, 0))

	var ids []uint32
	tb.Range(func(s *Stream) { ids = append(ids, s.ID()) })
	require.Equal(t, []uint32{1, 3, 5}, ids)
}
