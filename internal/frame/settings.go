package frame

// Setting parameter identifiers (RFC 7540 §6.5.2).
const (
	SettingHeaderTableSize      uint16 = 0x1
	SettingEnablePush           uint16 = 0x2
	SettingMaxConcurrentStreams uint16 = 0x3
	SettingInitialWindowSize    uint16 = 0x4
	SettingMaxFrameSize         uint16 = 0x5
	SettingMaxHeaderListSize    uint16 = 0x6
)

// Default SETTINGS values (RFC 7540 §6.5.2).
const (
	DefaultHeaderTableSize      uint32 = 4096
	DefaultMaxConcurrentStreams uint32 = 100
	DefaultInitialWindowSize    uint32 = 1<<16 - 1
	MaxWindowSize               uint32 = 1<<31 - 1
)

// Settings carries a SETTINGS frame (RFC 7540 §6.5): either an ACK, or a
// sequence of (identifier, value) pairs each peer uses to negotiate
// connection parameters.
type Settings struct {
	ack    bool
	params []settingParam
}

type settingParam struct {
	id    uint16
	value uint32
}

var _ Payload = (*Settings)(nil)

func (s *Settings) Type() Type { return TypeSettings }

func (s *Settings) Reset() {
	s.ack = false
	s.params = s.params[:0]
}

func (s *Settings) IsAck() bool   { return s.ack }
func (s *Settings) SetAck(v bool) { s.ack = v }

// Add appends a (id, value) setting to be encoded.
func (s *Settings) Add(id uint16, value uint32) {
	s.params = append(s.params, settingParam{id, value})
}

// ForEach calls fn once per decoded (id, value) pair, in wire order. Later
// duplicates override earlier ones per RFC 7540 §6.5 — callers that apply
// settings sequentially get this for free by iterating in order.
func (s *Settings) ForEach(fn func(id uint16, value uint32)) {
	for _, p := range s.params {
		fn(p.id, p.value)
	}
}

func (s *Settings) Deserialize(h *Header) error {
	if h.Stream() != 0 {
		return ErrStreamNonZero
	}
	s.ack = h.Flags().Has(FlagAck)
	b := h.rawPayload()
	if s.ack {
		if len(b) != 0 {
			return ErrBadSettingsLength
		}
		return nil
	}
	if len(b)%6 != 0 {
		return ErrBadSettingsLength
	}
	for len(b) > 0 {
		id := uint16(b[0])<<8 | uint16(b[1])
		value := uint32(b[2])<<24 | uint32(b[3])<<16 | uint32(b[4])<<8 | uint32(b[5])
		s.params = append(s.params, settingParam{id, value})
		b = b[6:]
	}
	return nil
}

func (s *Settings) Serialize(h *Header) {
	if s.ack {
		h.SetFlags(h.Flags().Add(FlagAck))
		return
	}
	for _, p := range s.params {
		h.payload = append(h.payload,
			byte(p.id>>8), byte(p.id),
			byte(p.value>>24), byte(p.value>>16), byte(p.value>>8), byte(p.value),
		)
	}
}
