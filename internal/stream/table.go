package stream

import (
	"sort"
	"sync"
)

// Table is the connection driver's sorted set of active streams, kept
// ordered by id for deterministic GOAWAY last-stream-id accounting
// (spec.md §4.D.4: "streams with id > last processed are rejected").
// Grounded on the teacher's Streams type, generalized with a mutex since
// the driver's read loop and write loop both touch it concurrently.
type Table struct {
	mu   sync.Mutex
	list []*Stream
}

// NewTable returns an empty Table.
func NewTable() *Table { return &Table{} }

// Insert adds s, keeping list sorted by stream id.
func (t *Table) Insert(s *Stream) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := sort.Search(len(t.list), func(i int) bool { return t.list[i].id >= s.id })
	t.list = append(t.list, nil)
	copy(t.list[i+1:], t.list[i:])
	t.list[i] = s
}

// Get returns the stream with the given id, or nil.
func (t *Table) Get(id uint32) *Stream {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(id)
}

func (t *Table) get(id uint32) *Stream {
	i := sort.Search(len(t.list), func(i int) bool { return t.list[i].id >= id })
	if i < len(t.list) && t.list[i].id == id {
		return t.list[i]
	}
	return nil
}

// Del removes and returns the stream with the given id, or nil if absent.
func (t *Table) Del(id uint32) *Stream {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := sort.Search(len(t.list), func(i int) bool { return t.list[i].id >= id })
	if i < len(t.list) && t.list[i].id == id {
		s := t.list[i]
		t.list = append(t.list[:i], t.list[i+1:]...)
		return s
	}
	return nil
}

// Len returns the number of tracked streams (open or half-closed), used
// to enforce MAX_CONCURRENT_STREAMS.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.list)
}

// Range calls fn for every tracked stream in ascending id order, iterating
// a snapshot taken under the lock; fn runs unlocked and may call back into
// the Table, and streams it inserts or deletes do not change the iteration.
func (t *Table) Range(fn func(*Stream)) {
	t.mu.Lock()
	snapshot := append([]*Stream(nil), t.list...)
	t.mu.Unlock()

	for _, s := range snapshot {
		fn(s)
	}
}
