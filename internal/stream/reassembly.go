package stream

import (
	"errors"

	"github.com/grpchost/grpchost/internal/frameutil"
)

// grpcPrefixLen is the 1-byte compressed flag + 4-byte big-endian length
// prefix in front of every gRPC message (spec.md §4.C "gRPC message
// framing").
const grpcPrefixLen = 5

// ErrMessageTooLarge is returned when a reassembled message would exceed
// the configured maximum.
var ErrMessageTooLarge = errors.New("stream: gRPC message exceeds max message size")

// Reassembler consumes successive DATA-frame payloads and yields complete
// length-prefixed gRPC messages, buffering partial frames across calls.
// The connection driver uses one per incoming stream to decode requests;
// outgoing messages are framed by the package function AppendMessage, the
// inverse op, without a Reassembler.
type Reassembler struct {
	buf        []byte
	maxMsgSize int
}

// NewReassembler returns a Reassembler with no message size cap; call
// SetMaxMessageSize to enforce one.
func NewReassembler() *Reassembler {
	return &Reassembler{}
}

// SetMaxMessageSize bounds the size of any single decoded message.
func (r *Reassembler) SetMaxMessageSize(n int) { r.maxMsgSize = n }

// Feed appends freshly-received DATA payload bytes to the internal
// buffer and returns every complete gRPC message now available, in
// order. Leftover partial-message bytes remain buffered for the next
// Feed call.
func (r *Reassembler) Feed(data []byte) ([]Message, error) {
	r.buf = append(r.buf, data...)

	var out []Message
	for {
		if len(r.buf) < grpcPrefixLen {
			break
		}
		length := frameutil.BytesToUint32(r.buf[1:5])
		if r.maxMsgSize > 0 && int(length) > r.maxMsgSize {
			return out, ErrMessageTooLarge
		}
		total := grpcPrefixLen + int(length)
		if len(r.buf) < total {
			break
		}

		msg := Message{
			Compressed: r.buf[0] != 0,
			Data:       append([]byte(nil), r.buf[grpcPrefixLen:total]...),
		}
		out = append(out, msg)
		r.buf = r.buf[total:]
	}
	return out, nil
}

// Pending reports whether partial, not-yet-complete message bytes remain
// buffered. The connection driver does not call it, so a peer ending the
// stream mid-message is not reported as an error.
func (r *Reassembler) Pending() bool { return len(r.buf) > 0 }

// Message is one decoded gRPC message.
type Message struct {
	Compressed bool
	Data       []byte
}

// AppendMessage frames payload as a single gRPC message and appends the
// wire bytes to dst, the inverse of Feed — used when writing a response
// or request message into an outgoing DATA frame.
func AppendMessage(dst []byte, payload []byte, compressed bool) []byte {
	var flag byte
	if compressed {
		flag = 1
	}
	dst = append(dst, flag)
	dst = frameutil.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}
