package frame

// Priority carries a PRIORITY frame (RFC 7540 §6.3). THE CORE does not
// implement priority scheduling, but it must still decode/encode the frame
// and tolerate it anywhere a stream accepts it.
type Priority struct {
	exclusive bool
	streamDep uint32
	weight    uint8
}

var _ Payload = (*Priority)(nil)

func (p *Priority) Type() Type { return TypePriority }

func (p *Priority) Reset() {
	p.exclusive = false
	p.streamDep = 0
	p.weight = 0
}

func (p *Priority) StreamDep() uint32 { return p.streamDep }
func (p *Priority) Exclusive() bool   { return p.exclusive }
func (p *Priority) Weight() uint8     { return p.weight }

func (p *Priority) Deserialize(h *Header) error {
	if h.Stream() == 0 {
		return ErrStreamZero
	}
	b := h.rawPayload()
	if len(b) != 5 {
		return ErrMissingBytes
	}
	dep := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	p.exclusive = dep&(1<<31) != 0
	p.streamDep = dep & (1<<31 - 1)
	p.weight = b[4]
	return nil
}

func (p *Priority) Serialize(h *Header) {
	var b [5]byte
	dep := p.streamDep
	if p.exclusive {
		dep |= 1 << 31
	}
	b[0] = byte(dep >> 24)
	b[1] = byte(dep >> 16)
	b[2] = byte(dep >> 8)
	b[3] = byte(dep)
	b[4] = p.weight
	h.payload, _ = h.appendPayload(h.payload, b[:])
}
