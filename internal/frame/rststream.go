package frame

// RSTStream carries a RST_STREAM frame (RFC 7540 §6.4): abrupt stream
// termination with an error code.
type RSTStream struct {
	code ErrCode
}

var _ Payload = (*RSTStream)(nil)

func (r *RSTStream) Type() Type { return TypeRSTStream }

func (r *RSTStream) Reset() { r.code = 0 }

func (r *RSTStream) Code() ErrCode     { return r.code }
func (r *RSTStream) SetCode(c ErrCode) { r.code = c }

func (r *RSTStream) Deserialize(h *Header) error {
	if h.Stream() == 0 {
		return ErrStreamZero
	}
	b := h.rawPayload()
	if len(b) != 4 {
		return ErrMissingBytes
	}
	r.code = ErrCode(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
	return nil
}

func (r *RSTStream) Serialize(h *Header) {
	var b [4]byte
	c := uint32(r.code)
	b[0] = byte(c >> 24)
	b[1] = byte(c >> 16)
	b[2] = byte(c >> 8)
	b[3] = byte(c)
	h.payload, _ = h.appendPayload(h.payload, b[:])
}
