package frame

// Headers carries a HEADERS frame (RFC 7540 §6.2). The header block
// fragment is opaque bytes here; HPACK decoding happens one layer up where
// the connection's dynamic table lives.
type Headers struct {
	endStream  bool
	endHeaders bool
	priority   bool

	streamDep uint32
	exclusive bool
	weight    uint8

	block []byte
}

var _ Payload = (*Headers)(nil)

func (h *Headers) Type() Type { return TypeHeaders }

func (h *Headers) Reset() {
	h.endStream = false
	h.endHeaders = false
	h.priority = false
	h.streamDep = 0
	h.exclusive = false
	h.weight = 0
	h.block = h.block[:0]
}

func (h *Headers) EndStream() bool     { return h.endStream }
func (h *Headers) SetEndStream(v bool) { h.endStream = v }

func (h *Headers) EndHeaders() bool     { return h.endHeaders }
func (h *Headers) SetEndHeaders(v bool) { h.endHeaders = v }

func (h *Headers) HeaderBlock() []byte { return h.block }

func (h *Headers) SetHeaderBlock(b []byte) { h.block = append(h.block[:0], b...) }

func (h *Headers) Deserialize(fh *Header) error {
	if fh.Stream() == 0 {
		return ErrStreamZero
	}
	b := fh.rawPayload()
	h.endStream = fh.Flags().Has(FlagEndStream)
	h.endHeaders = fh.Flags().Has(FlagEndHeaders)

	var padLen int
	if fh.Flags().Has(FlagPadded) {
		if len(b) == 0 {
			return ErrMissingBytes
		}
		padLen = int(b[0])
		b = b[1:]
	}

	if fh.Flags().Has(FlagPriority) {
		if len(b) < 5 {
			return ErrMissingBytes
		}
		dep := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
		h.exclusive = dep&(1<<31) != 0
		h.streamDep = dep & (1<<31 - 1)
		h.weight = b[4]
		h.priority = true
		b = b[5:]
	}

	if padLen > len(b) {
		return ErrMissingBytes
	}
	b = b[:len(b)-padLen]

	h.block = append(h.block[:0], b...)
	return nil
}

func (h *Headers) Serialize(fh *Header) {
	if h.endStream {
		fh.SetFlags(fh.Flags().Add(FlagEndStream))
	}
	if h.endHeaders {
		fh.SetFlags(fh.Flags().Add(FlagEndHeaders))
	}
	fh.payload, _ = fh.appendPayload(fh.payload, h.block)
}
