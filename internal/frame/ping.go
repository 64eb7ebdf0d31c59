package frame

// Ping carries an 8-byte opaque PING payload (RFC 7540 §6.7), used for
// liveness checks and RTT measurement.
type Ping struct {
	ack  bool
	data [8]byte
}

var _ Payload = (*Ping)(nil)

func (p *Ping) Type() Type { return TypePing }

func (p *Ping) Reset() {
	p.ack = false
	p.data = [8]byte{}
}

func (p *Ping) IsAck() bool   { return p.ack }
func (p *Ping) SetAck(v bool) { p.ack = v }

func (p *Ping) Data() []byte { return p.data[:] }

func (p *Ping) SetData(b []byte) { copy(p.data[:], b) }

func (p *Ping) Deserialize(h *Header) error {
	if h.Stream() != 0 {
		return ErrStreamNonZero
	}
	b := h.rawPayload()
	if len(b) != 8 {
		return ErrBadPingLength
	}
	p.ack = h.Flags().Has(FlagAck)
	copy(p.data[:], b)
	return nil
}

func (p *Ping) Serialize(h *Header) {
	if p.ack {
		h.SetFlags(h.Flags().Add(FlagAck))
	}
	h.payload, _ = h.appendPayload(h.payload, p.data[:])
}
