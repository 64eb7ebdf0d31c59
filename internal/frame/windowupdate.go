package frame

// WindowUpdate carries a WINDOW_UPDATE frame (RFC 7540 §6.9): a 31-bit
// flow-control credit increment, scoped to stream id 0 (connection) or a
// specific stream.
type WindowUpdate struct {
	increment uint32
}

var _ Payload = (*WindowUpdate)(nil)

func (w *WindowUpdate) Type() Type { return TypeWindowUpdate }

func (w *WindowUpdate) Reset() { w.increment = 0 }

func (w *WindowUpdate) Increment() uint32 { return w.increment }
func (w *WindowUpdate) SetIncrement(n uint32) {
	w.increment = n & (1<<31 - 1)
}

func (w *WindowUpdate) Deserialize(h *Header) error {
	b := h.rawPayload()
	if len(b) != 4 {
		return ErrMissingBytes
	}
	inc := (uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])) & (1<<31 - 1)
	if inc == 0 {
		return ErrBadWindowIncrement
	}
	w.increment = inc
	return nil
}

func (w *WindowUpdate) Serialize(h *Header) {
	var b [4]byte
	b[0] = byte(w.increment >> 24)
	b[1] = byte(w.increment >> 16)
	b[2] = byte(w.increment >> 8)
	b[3] = byte(w.increment)
	h.payload, _ = h.appendPayload(h.payload, b[:])
}
