package hpack

// dynamicTable is the per-connection HPACK dynamic table (RFC 7541 §2.3.2).
// Index 1 is the most recently inserted entry; new entries are appended
// conceptually "at the front" and old ones evicted "from the back" — we
// implement that with a slice where index 0 is the newest: insertion copies
// the slice to prepend (O(n)) and eviction is a simple truncation from the
// tail.
type dynamicTable struct {
	entries []HeaderField
	size    int
	maxSize int
}

func newDynamicTable(maxSize int) *dynamicTable {
	return &dynamicTable{maxSize: maxSize}
}

// Len returns the number of entries currently held.
func (t *dynamicTable) Len() int { return len(t.entries) }

// Size returns the RFC 7541 §4.1 accounted size, always <= maxSize.
func (t *dynamicTable) Size() int { return t.size }

// At returns the entry at 1-based dynamic-table index i (i.e. HPACK index
// i + len(staticTable)), or false if out of range.
func (t *dynamicTable) At(i int) (HeaderField, bool) {
	if i < 1 || i > len(t.entries) {
		return HeaderField{}, false
	}
	return t.entries[i-1], true
}

// Insert adds f as the newest entry, evicting the oldest entries until the
// size invariant sum(sizes) <= maxSize holds (spec.md §3 DynamicTable
// invariant). An entry larger than maxSize by itself empties the table.
func (t *dynamicTable) Insert(f HeaderField) {
	sz := f.Size()
	t.entries = append([]HeaderField{f}, t.entries...)
	t.size += sz
	t.evict()
}

func (t *dynamicTable) evict() {
	for t.size > t.maxSize && len(t.entries) > 0 {
		last := t.entries[len(t.entries)-1]
		t.entries = t.entries[:len(t.entries)-1]
		t.size -= last.Size()
	}
}

// SetMaxSize applies a new bound (from a dynamic-table-size-update
// instruction or local SETTINGS change), evicting as needed.
func (t *dynamicTable) SetMaxSize(max int) {
	t.maxSize = max
	t.evict()
}
