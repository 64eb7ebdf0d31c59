package hpack

// Encoder HPACK-encodes header lists against a connection-local dynamic
// table, picking representations per spec.md §4.B's encoder strategy:
// exact (name,value) match -> indexed; name-only match -> literal with
// indexing referencing the indexed name; otherwise literal with indexing
// and a literal name. Sensitive fields always use literal-never-indexed.
type Encoder struct {
	table *dynamicTable
}

// NewEncoder returns an Encoder whose dynamic table starts at maxTableSize
// bytes (the HEADER_TABLE_SIZE this endpoint advertised to its peer).
func NewEncoder(maxTableSize int) *Encoder {
	return &Encoder{table: newDynamicTable(maxTableSize)}
}

// SetMaxTableSize resizes the encoder's dynamic table and appends a dynamic
// table size update instruction to dst (spec.md §4.B); callers place it at
// the start of a header block.
func (e *Encoder) SetMaxTableSize(dst []byte, max int) []byte {
	e.table.SetMaxSize(max)
	return appendSizeUpdate(dst, max)
}

func appendSizeUpdate(dst []byte, max int) []byte {
	n := len(dst)
	dst = appendInt(dst, 5, uint64(max))
	dst[n] |= 0x20
	return dst
}

// indexOf returns (hpackIndex, exactMatch) for f, searching the static
// table then the dynamic table. hpackIndex is 0 if no name match exists.
func (e *Encoder) indexOf(f HeaderField) (idx int, exact bool) {
	for i, s := range staticTable {
		if s.Name == f.Name {
			if s.Value == f.Value {
				return i + 1, true
			}
			if idx == 0 {
				idx = i + 1
			}
		}
	}

	for i := 0; i < e.table.Len(); i++ {
		d, _ := e.table.At(i + 1)
		if d.Name == f.Name {
			if d.Value == f.Value {
				return i + 1 + len(staticTable), true
			}
			if idx == 0 {
				idx = i + 1 + len(staticTable)
			}
		}
	}

	return idx, false
}

// AppendField encodes one field and appends it to dst.
func (e *Encoder) AppendField(dst []byte, f HeaderField) []byte {
	idx, exact := e.indexOf(f)

	if exact {
		n := len(dst)
		dst = appendInt(dst, 7, uint64(idx))
		dst[n] |= 0x80
		return dst
	}

	sensitive := f.Sensitive || alwaysNeverIndexed(f.Name)

	if sensitive {
		n := len(dst)
		if idx > 0 {
			dst = appendInt(dst, 4, uint64(idx))
		} else {
			dst = appendInt(dst, 4, 0)
			dst = appendString(dst, f.Name)
		}
		dst[n] |= 0x10
		return appendString(dst, f.Value)
	}

	// literal header field with incremental indexing
	n := len(dst)
	if idx > 0 {
		dst = appendInt(dst, 6, uint64(idx))
	} else {
		dst = appendInt(dst, 6, 0)
		dst = appendString(dst, f.Name)
	}
	dst[n] |= 0x40
	dst = appendString(dst, f.Value)

	e.table.Insert(f)
	return dst
}

// EncodeList encodes every field in fields, in order, into dst.
func (e *Encoder) EncodeList(dst []byte, fields []HeaderField) []byte {
	for _, f := range fields {
		dst = e.AppendField(dst, f)
	}
	return dst
}
