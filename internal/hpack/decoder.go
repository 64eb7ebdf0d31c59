package hpack

import "errors"

// ErrFieldNotFound indicates an indexed header field representation named
// an index absent from both tables.
var ErrFieldNotFound = errors.New("hpack: indexed field not found")

// ErrTableSizeUpdateNotAtStart reports a dynamic-table-size-update
// instruction appearing anywhere but the start of a header block
// (spec.md §4.B: "may appear only at the beginning of a header block").
var ErrTableSizeUpdateNotAtStart = errors.New("hpack: dynamic table size update not at start of header block")

// ErrTableSizeUpdateTooLarge reports a size update beyond what SETTINGS
// advertised as the maximum (spec.md §4.B).
var ErrTableSizeUpdateTooLarge = errors.New("hpack: dynamic table size update exceeds advertised maximum")

// Decoder HPACK-decodes header blocks against a connection-local dynamic
// table (spec.md §4.B decoder dispatch table).
type Decoder struct {
	table          *dynamicTable
	maxAdvertised  int
	sawNonSizeInst bool
}

// NewDecoder returns a Decoder whose dynamic table starts at maxTableSize
// bytes (this endpoint's own HEADER_TABLE_SIZE, the cap a peer's size
// update instruction may not exceed).
func NewDecoder(maxTableSize int) *Decoder {
	return &Decoder{table: newDynamicTable(maxTableSize), maxAdvertised: maxTableSize}
}

// SetMaxAdvertised updates the ceiling dynamic-table-size-update
// instructions may not exceed, e.g. after a local SETTINGS change.
func (d *Decoder) SetMaxAdvertised(max int) {
	d.maxAdvertised = max
	if d.table.maxSize > max {
		d.table.SetMaxSize(max)
	}
}

// DecodeFull decodes one complete header block (already reassembled from
// HEADERS + any CONTINUATION frames) into an ordered field list.
func (d *Decoder) DecodeFull(block []byte) ([]HeaderField, error) {
	d.sawNonSizeInst = false
	var out []HeaderField

	b := block
	for len(b) > 0 {
		var f HeaderField
		var err error
		b, f, err = d.decodeOne(b)
		if err != nil {
			return out, err
		}
		if !isSizeUpdateMarker(f) {
			out = append(out, f)
		}
	}
	return out, nil
}

// sizeUpdateSentinel is returned internally to signal "this instruction was
// a table size update, not a field" without a separate return channel.
var sizeUpdateSentinel = HeaderField{Name: "\x00hpack-size-update"}

func isSizeUpdateMarker(f HeaderField) bool { return f.Name == sizeUpdateSentinel.Name }

func (d *Decoder) decodeOne(b []byte) ([]byte, HeaderField, error) {
	c := b[0]

	switch {
	case c&0x80 == 0x80: // indexed header field: 1xxxxxxx
		d.sawNonSizeInst = true
		rest, idx, err := readInt(7, b)
		if err != nil {
			return rest, HeaderField{}, err
		}
		f, ok := d.lookup(int(idx))
		if !ok {
			return rest, HeaderField{}, ErrFieldNotFound
		}
		return rest, f, nil

	case c&0xc0 == 0x40: // literal with incremental indexing: 01xxxxxx
		d.sawNonSizeInst = true
		rest, f, err := d.readLiteral(6, b)
		if err != nil {
			return rest, f, err
		}
		d.table.Insert(f)
		return rest, f, nil

	case c&0xf0 == 0x00: // literal without indexing: 0000xxxx
		d.sawNonSizeInst = true
		return d.readLiteral(4, b)

	case c&0xf0 == 0x10: // literal never indexed: 0001xxxx
		d.sawNonSizeInst = true
		rest, f, err := d.readLiteral(4, b)
		f.Sensitive = true
		return rest, f, err

	case c&0xe0 == 0x20: // dynamic table size update: 001xxxxx
		if d.sawNonSizeInst {
			return b, HeaderField{}, ErrTableSizeUpdateNotAtStart
		}
		rest, max, err := readInt(5, b)
		if err != nil {
			return rest, HeaderField{}, err
		}
		if int(max) > d.maxAdvertised {
			return rest, HeaderField{}, ErrTableSizeUpdateTooLarge
		}
		d.table.SetMaxSize(int(max))
		return rest, sizeUpdateSentinel, nil
	}

	return b, HeaderField{}, ErrFieldNotFound
}

// readLiteral decodes a literal representation with an n-bit index
// prefix: index 0 means a literal name follows, otherwise the name is
// looked up by index and only the value is read.
func (d *Decoder) readLiteral(n uint, b []byte) ([]byte, HeaderField, error) {
	rest, idx, err := readInt(n, b)
	if err != nil {
		return rest, HeaderField{}, err
	}

	var name string
	if idx == 0 {
		var nerr error
		rest, name, nerr = readString(rest)
		if nerr != nil {
			return rest, HeaderField{}, nerr
		}
	} else {
		entry, ok := d.lookup(int(idx))
		if !ok {
			return rest, HeaderField{}, ErrFieldNotFound
		}
		name = entry.Name
	}

	rest, value, err := readString(rest)
	if err != nil {
		return rest, HeaderField{}, err
	}

	return rest, HeaderField{Name: name, Value: value}, nil
}

func (d *Decoder) lookup(idx int) (HeaderField, bool) {
	if idx >= 1 && idx <= len(staticTable) {
		return staticTable[idx-1], true
	}
	return d.table.At(idx - len(staticTable))
}
