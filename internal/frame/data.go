package frame

// Data carries DATA frame payloads (RFC 7540 §6.1): the gRPC message bytes
// for a stream, optionally padded.
type Data struct {
	endStream bool
	padLen    uint8
	data      []byte
}

var _ Payload = (*Data)(nil)

func (d *Data) Type() Type { return TypeData }

func (d *Data) Reset() {
	d.endStream = false
	d.padLen = 0
	d.data = d.data[:0]
}

func (d *Data) EndStream() bool     { return d.endStream }
func (d *Data) SetEndStream(v bool) { d.endStream = v }

func (d *Data) Bytes() []byte { return d.data }

func (d *Data) SetBytes(b []byte) { d.data = append(d.data[:0], b...) }

func (d *Data) Deserialize(h *Header) error {
	if h.Stream() == 0 {
		return ErrStreamZero
	}
	b := h.rawPayload()
	d.endStream = h.Flags().Has(FlagEndStream)

	if h.Flags().Has(FlagPadded) {
		if len(b) == 0 {
			return ErrMissingBytes
		}
		d.padLen = b[0]
		b = b[1:]
		if int(d.padLen) > len(b) {
			return ErrMissingBytes
		}
		b = b[:len(b)-int(d.padLen)]
	}

	d.data = append(d.data[:0], b...)
	return nil
}

func (d *Data) Serialize(h *Header) {
	if d.endStream {
		h.SetFlags(h.Flags().Add(FlagEndStream))
	}
	h.payload, _ = h.appendPayload(h.payload, d.data)
}

// PaddedLen returns the decoded frame's data length plus the padding bytes
// it carried, for recv-window accounting (spec.md §4.C: padding counts
// toward the flow-control decrement). The one-byte Pad Length field of a
// padded frame is not included.
func (d *Data) PaddedLen() int { return len(d.data) + int(d.padLen) }
