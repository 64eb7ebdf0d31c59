package frame

// Continuation carries a CONTINUATION frame (RFC 7540 §6.10): additional
// header-block bytes following a HEADERS or PUSH_PROMISE frame that did not
// set END_HEADERS. The driver enforces that CONTINUATION immediately
// follows such a frame on the same stream (spec.md §4.D.5); this type only
// holds the bytes.
type Continuation struct {
	endHeaders bool
	block      []byte
}

var _ Payload = (*Continuation)(nil)

func (c *Continuation) Type() Type { return TypeContinuation }

func (c *Continuation) Reset() {
	c.endHeaders = false
	c.block = c.block[:0]
}

func (c *Continuation) EndHeaders() bool     { return c.endHeaders }
func (c *Continuation) SetEndHeaders(v bool) { c.endHeaders = v }
func (c *Continuation) HeaderBlock() []byte  { return c.block }
func (c *Continuation) SetHeaderBlock(b []byte) {
	c.block = append(c.block[:0], b...)
}

func (c *Continuation) Deserialize(h *Header) error {
	if h.Stream() == 0 {
		return ErrStreamZero
	}
	c.endHeaders = h.Flags().Has(FlagEndHeaders)
	c.block = append(c.block[:0], h.rawPayload()...)
	return nil
}

func (c *Continuation) Serialize(h *Header) {
	if c.endHeaders {
		h.SetFlags(h.Flags().Add(FlagEndHeaders))
	}
	h.payload, _ = h.appendPayload(h.payload, c.block)
}
