// Package frame implements the HTTP/2 frame codec: the fixed 9-byte frame
// header and the typed payloads for all ten frame types THE CORE supports
// (RFC 7540 §4, §6). PUSH_PROMISE decodes but is always rejected by the
// connection driver, since server push is out of scope.
package frame

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/grpchost/grpchost/internal/frameutil"
)

// Type identifies one of the ten HTTP/2 frame types.
type Type uint8

const (
	TypeData         Type = 0x0
	TypeHeaders      Type = 0x1
	TypePriority     Type = 0x2
	TypeRSTStream    Type = 0x3
	TypeSettings     Type = 0x4
	TypePushPromise  Type = 0x5
	TypePing         Type = 0x6
	TypeGoAway       Type = 0x7
	TypeWindowUpdate Type = 0x8
	TypeContinuation Type = 0x9

	minType Type = TypeData
	maxType Type = TypeContinuation
)

func (t Type) String() string {
	switch t {
	case TypeData:
		return "DATA"
	case TypeHeaders:
		return "HEADERS"
	case TypePriority:
		return "PRIORITY"
	case TypeRSTStream:
		return "RST_STREAM"
	case TypeSettings:
		return "SETTINGS"
	case TypePushPromise:
		return "PUSH_PROMISE"
	case TypePing:
		return "PING"
	case TypeGoAway:
		return "GOAWAY"
	case TypeWindowUpdate:
		return "WINDOW_UPDATE"
	case TypeContinuation:
		return "CONTINUATION"
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
}

// Flags is the frame header's 8-bit flag field. The same bit means
// different things per frame type, matching RFC 7540.
type Flags uint8

const (
	FlagAck        Flags = 0x1 // SETTINGS, PING
	FlagEndStream  Flags = 0x1 // DATA, HEADERS
	FlagEndHeaders Flags = 0x4 // HEADERS, PUSH_PROMISE, CONTINUATION
	FlagPadded     Flags = 0x8 // DATA, HEADERS, PUSH_PROMISE
	FlagPriority   Flags = 0x20
)

// Has reports whether f contains all bits of other.
func (f Flags) Has(other Flags) bool { return f&other == other }

// Add sets the bits of other on f.
func (f Flags) Add(other Flags) Flags { return f | other }

// Del clears the bits of other on f.
func (f Flags) Del(other Flags) Flags { return f &^ other }

// DefaultMaxFrameSize is the minimum negotiable/default MAX_FRAME_SIZE
// (RFC 7540 §6.5.2).
const DefaultMaxFrameSize = 1 << 14

// MaxFrameSizeUpperBound is the largest value MAX_FRAME_SIZE may take.
const MaxFrameSizeUpperBound = 1<<24 - 1

// HeaderLen is the fixed size of the frame header.
const HeaderLen = 9

// Payload is implemented by each concrete frame type. A Payload knows how
// to read itself from, and write itself into, a Header's raw payload
// buffer; it does not own framing (length/type/flags/stream id).
type Payload interface {
	Type() Type
	Reset()
	// Deserialize populates the payload from h's raw bytes. h.Stream() and
	// h.Flags() are already parsed.
	Deserialize(h *Header) error
	// Serialize encodes the payload into h's internal buffer and updates
	// h's flags as needed. The caller still sets h.length from the result.
	Serialize(h *Header)
}

var payloadPools = [maxType + 1]*sync.Pool{
	TypeData:         {New: func() interface{} { return &Data{} }},
	TypeHeaders:      {New: func() interface{} { return &Headers{} }},
	TypePriority:     {New: func() interface{} { return &Priority{} }},
	TypeRSTStream:    {New: func() interface{} { return &RSTStream{} }},
	TypeSettings:     {New: func() interface{} { return &Settings{} }},
	TypePushPromise:  {New: func() interface{} { return &PushPromise{} }},
	TypePing:         {New: func() interface{} { return &Ping{} }},
	TypeGoAway:       {New: func() interface{} { return &GoAway{} }},
	TypeWindowUpdate: {New: func() interface{} { return &WindowUpdate{} }},
	TypeContinuation: {New: func() interface{} { return &Continuation{} }},
}

// AcquirePayload returns a pooled, reset Payload of kind t.
func AcquirePayload(t Type) (Payload, error) {
	if t < minType || t > maxType {
		return nil, ErrUnknownFrameType
	}
	p := payloadPools[t].Get().(Payload)
	p.Reset()
	return p, nil
}

// ReleasePayload returns p to its pool.
func ReleasePayload(p Payload) {
	if p == nil {
		return
	}
	payloadPools[p.Type()].Put(p)
}

var headerPool = sync.Pool{New: func() interface{} { return &Header{} }}

// Header is the 9-byte HTTP/2 frame header plus its decoded Payload.
//
// A Header instance must not be shared across goroutines. Use
// AcquireHeader/ReleaseHeader to reuse buffers.
type Header struct {
	length int
	kind   Type
	flags  Flags
	stream uint32

	// maxLen is the local MAX_FRAME_SIZE; decode rejects payloads beyond
	// it (spec.md §4.A).
	maxLen uint32

	raw     [HeaderLen]byte
	payload []byte

	body Payload
}

// AcquireHeader returns a pooled Header reset to defaults.
func AcquireHeader() *Header {
	h := headerPool.Get().(*Header)
	h.Reset()
	return h
}

// ReleaseHeader releases h's body (if any) and returns h to the pool.
func ReleaseHeader(h *Header) {
	if h.body != nil {
		ReleasePayload(h.body)
	}
	headerPool.Put(h)
}

// Reset clears h for reuse.
func (h *Header) Reset() {
	h.length = 0
	h.kind = 0
	h.flags = 0
	h.stream = 0
	h.maxLen = DefaultMaxFrameSize
	h.body = nil
	h.payload = h.payload[:0]
}

func (h *Header) Type() Type     { return h.kind }
func (h *Header) Flags() Flags   { return h.flags }
func (h *Header) Stream() uint32 { return h.stream }
func (h *Header) Len() int       { return h.length }
func (h *Header) MaxLen() uint32 { return h.maxLen }

func (h *Header) SetFlags(f Flags)     { h.flags = f }
func (h *Header) SetStream(id uint32)  { h.stream = id & (1<<31 - 1) }
func (h *Header) SetMaxLen(max uint32) { h.maxLen = max }

// Body returns the decoded/attached payload.
func (h *Header) Body() Payload { return h.body }

// SetBody attaches p to h, deriving h's type from p.
func (h *Header) SetBody(p Payload) {
	if p == nil {
		panic("frame: body cannot be nil")
	}
	h.kind = p.Type()
	h.body = p
}

func (h *Header) parseFixed(b []byte) {
	h.length = int(frameutil.BytesToUint24(b[:3]))
	h.kind = Type(b[3])
	h.flags = Flags(b[4])
	h.stream = frameutil.BytesToUint31(b[5:9])
}

func (h *Header) writeFixed(b []byte) {
	frameutil.Uint24ToBytes(b[:3], uint32(h.length))
	b[3] = byte(h.kind)
	b[4] = byte(h.flags)
	frameutil.Uint32ToBytes(b[5:9], h.stream)
}

// rawPayload gives frame-type implementations raw access to the read buffer.
func (h *Header) rawPayload() []byte { return h.payload }

func (h *Header) setPayload(b []byte) {
	h.payload = append(h.payload[:0], b...)
}

func (h *Header) appendPayload(dst, src []byte) ([]byte, error) {
	n := len(dst) + len(src)
	if h.maxLen > 0 && uint32(n) > h.maxLen {
		return dst, ErrPayloadExceeds
	}
	return append(dst, src...), nil
}

// ReadFrom reads one frame header + payload from br and decodes it into a
// freshly acquired Payload. It does not loop until io.EOF.
func (h *Header) ReadFrom(br *bufio.Reader) (int64, error) {
	hdr, err := br.Peek(HeaderLen)
	if err != nil {
		return 0, err
	}
	if _, derr := br.Discard(HeaderLen); derr != nil {
		return 0, derr
	}

	rn := int64(HeaderLen)
	h.parseFixed(hdr)

	if h.maxLen != 0 && h.length > int(h.maxLen) {
		io.CopyN(io.Discard, br, int64(h.length)) //nolint:errcheck
		return rn, ErrPayloadExceeds
	}

	body, err := AcquirePayload(h.kind)
	if err != nil {
		io.CopyN(io.Discard, br, int64(h.length)) //nolint:errcheck
		return rn, err
	}
	h.body = body

	if h.length > 0 {
		h.payload = frameutil.Resize(h.payload, h.length)
		n, rerr := io.ReadFull(br, h.payload)
		rn += int64(n)
		if rerr != nil {
			return rn, rerr
		}
	} else {
		h.payload = h.payload[:0]
	}

	return rn, h.body.Deserialize(h)
}

// WriteTo serializes h.body and writes the header+payload to bw.
func (h *Header) WriteTo(bw *bufio.Writer) (int64, error) {
	h.payload = h.payload[:0]
	h.body.Serialize(h)
	h.length = len(h.payload)

	h.writeFixed(h.raw[:])

	n, err := bw.Write(h.raw[:])
	wn := int64(n)
	if err != nil {
		return wn, err
	}
	n, err = bw.Write(h.payload)
	wn += int64(n)
	return wn, err
}

// ReadHeaderFrom is a convenience wrapper that acquires a Header, reads one
// frame and returns it, releasing it on error.
func ReadHeaderFrom(br *bufio.Reader, maxLen uint32) (*Header, error) {
	h := AcquireHeader()
	h.maxLen = maxLen
	_, err := h.ReadFrom(br)
	if err != nil {
		ReleaseHeader(h)
		return nil, err
	}
	return h, nil
}
