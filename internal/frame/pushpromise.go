package frame

// PushPromise decodes a PUSH_PROMISE frame (RFC 7540 §6.6) only so the
// connection driver can recognize and reject it cleanly: server push is
// disabled (spec.md §4.A), so a server never emits this frame and a client
// that sends one has violated the protocol.
type PushPromise struct {
	endHeaders     bool
	promisedStream uint32
	block          []byte
}

var _ Payload = (*PushPromise)(nil)

func (p *PushPromise) Type() Type { return TypePushPromise }

func (p *PushPromise) Reset() {
	p.endHeaders = false
	p.promisedStream = 0
	p.block = p.block[:0]
}

func (p *PushPromise) PromisedStream() uint32 { return p.promisedStream }

func (p *PushPromise) Deserialize(h *Header) error {
	if h.Stream() == 0 {
		return ErrStreamZero
	}
	b := h.rawPayload()

	var padLen int
	if h.Flags().Has(FlagPadded) {
		if len(b) == 0 {
			return ErrMissingBytes
		}
		padLen = int(b[0])
		b = b[1:]
	}
	if len(b) < 4 {
		return ErrMissingBytes
	}
	p.promisedStream = (uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])) & (1<<31 - 1)
	b = b[4:]
	if padLen > len(b) {
		return ErrMissingBytes
	}
	b = b[:len(b)-padLen]
	p.endHeaders = h.Flags().Has(FlagEndHeaders)
	p.block = append(p.block[:0], b...)
	return nil
}

// Serialize exists to satisfy Payload; the driver never emits PUSH_PROMISE.
func (p *PushPromise) Serialize(h *Header) {
	if p.endHeaders {
		h.SetFlags(h.Flags().Add(FlagEndHeaders))
	}
	var b [4]byte
	b[0] = byte(p.promisedStream >> 24)
	b[1] = byte(p.promisedStream >> 16)
	b[2] = byte(p.promisedStream >> 8)
	b[3] = byte(p.promisedStream)
	h.payload, _ = h.appendPayload(h.payload, b[:])
	h.payload, _ = h.appendPayload(h.payload, p.block)
}
