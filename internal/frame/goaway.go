package frame

// GoAway carries a GOAWAY frame (RFC 7540 §6.8): tells the peer the
// highest stream id that was or will be processed, and why the connection
// is closing.
type GoAway struct {
	lastStreamID uint32
	code         ErrCode
	debug        []byte
}

var _ Payload = (*GoAway)(nil)

func (g *GoAway) Type() Type { return TypeGoAway }

func (g *GoAway) Reset() {
	g.lastStreamID = 0
	g.code = 0
	g.debug = g.debug[:0]
}

func (g *GoAway) LastStreamID() uint32 { return g.lastStreamID }
func (g *GoAway) SetLastStreamID(id uint32) {
	g.lastStreamID = id & (1<<31 - 1)
}

func (g *GoAway) Code() ErrCode     { return g.code }
func (g *GoAway) SetCode(c ErrCode) { g.code = c }

func (g *GoAway) Debug() []byte           { return g.debug }
func (g *GoAway) SetDebug(b []byte)       { g.debug = append(g.debug[:0], b...) }
func (g *GoAway) SetDebugString(s string) { g.debug = append(g.debug[:0], s...) }

func (g *GoAway) Deserialize(h *Header) error {
	if h.Stream() != 0 {
		return ErrStreamNonZero
	}
	b := h.rawPayload()
	if len(b) < 8 {
		return ErrMissingBytes
	}
	g.lastStreamID = (uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])) & (1<<31 - 1)
	g.code = ErrCode(uint32(b[4])<<24 | uint32(b[5])<<16 | uint32(b[6])<<8 | uint32(b[7]))
	g.debug = append(g.debug[:0], b[8:]...)
	return nil
}

func (g *GoAway) Serialize(h *Header) {
	var b [8]byte
	b[0] = byte(g.lastStreamID >> 24)
	b[1] = byte(g.lastStreamID >> 16)
	b[2] = byte(g.lastStreamID >> 8)
	b[3] = byte(g.lastStreamID)
	code := uint32(g.code)
	b[4] = byte(code >> 24)
	b[5] = byte(code >> 16)
	b[6] = byte(code >> 8)
	b[7] = byte(code)

	h.payload = append(h.payload, b[:]...)
	h.payload = append(h.payload, g.debug...)
}
