// Package stream implements the per-stream state machine (RFC 7540 §5.1
// subset relevant to a server that never pushes), its flow-control window
// accounting, and gRPC message reassembly on top of HTTP/2 DATA frames
// (spec.md §4.C "Stream").
package stream

import (
	"sync"

	"github.com/grpchost/grpchost/internal/frame"
)

// State is a stream's position in the RFC 7540 §5.1 state machine. THE
// CORE never initiates server push, so RESERVED_LOCAL is not defined;
// StateReservedRemote is kept for symmetry with the RFC and no transition
// in this package enters it.
type State int8

const (
	StateIdle State = iota
	StateReservedRemote
	StateOpen
	StateHalfClosedLocal
	StateHalfClosedRemote
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReservedRemote:
		return "reserved_remote"
	case StateOpen:
		return "open"
	case StateHalfClosedLocal:
		return "half_closed_local"
	case StateHalfClosedRemote:
		return "half_closed_remote"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Stream is one HTTP/2 stream carrying one gRPC call.
type Stream struct {
	mu sync.Mutex

	id    uint32
	state State

	sendWindow int32
	recvWindow int32

	reasm *Reassembler

	// Data is opaque per-stream application state (the dispatch fabric's
	// ServerContext), set once after the stream is created.
	Data any
}

// New creates an idle stream with the given initial flow-control windows.
func New(id uint32, initialSendWindow, initialRecvWindow int32) *Stream {
	return &Stream{
		id:         id,
		state:      StateIdle,
		sendWindow: initialSendWindow,
		recvWindow: initialRecvWindow,
		reasm:      NewReassembler(),
	}
}

func (s *Stream) ID() uint32 { return s.id }

func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reassembler returns the stream's gRPC message reassembler.
func (s *Stream) Reassembler() *Reassembler { return s.reasm }

// OpenByHeaders transitions Idle -> Open on receipt of a client HEADERS
// frame (the only way a server stream opens; spec.md §4.C never pushes).
func (s *Stream) OpenByHeaders(endStream bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return frame.NewStreamError(s.id, frame.ErrCodeProtocol, "HEADERS on non-idle stream")
	}
	if endStream {
		s.state = StateHalfClosedRemote
	} else {
		s.state = StateOpen
	}
	return nil
}

// RecvEndStream applies the client's END_STREAM flag (from DATA or
// trailer HEADERS), half-closing the remote side.
func (s *Stream) RecvEndStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateOpen:
		s.state = StateHalfClosedRemote
	case StateHalfClosedLocal:
		s.state = StateClosed
	case StateHalfClosedRemote, StateClosed:
		// idempotent: a duplicate END_STREAM observation is a protocol
		// violation upstream, not something this type needs to re-detect.
	default:
		return frame.NewStreamError(s.id, frame.ErrCodeProtocol, "END_STREAM on idle/reserved stream")
	}
	return nil
}

// SendEndStream marks the local (server) side as done sending — the
// dispatch fabric calls this once trailers are queued for the writer.
func (s *Stream) SendEndStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateOpen:
		s.state = StateHalfClosedLocal
	case StateHalfClosedRemote:
		s.state = StateClosed
	case StateHalfClosedLocal, StateClosed:
	default:
		return frame.NewStreamError(s.id, frame.ErrCodeProtocol, "response on idle stream")
	}
	return nil
}

// Close forces the stream closed, e.g. on RST_STREAM from either side.
func (s *Stream) Close() {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
}

// IsOpen reports whether the stream can still carry frames in at least
// one direction.
func (s *Stream) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateClosed && s.state != StateIdle
}

// SendWindow returns the remaining bytes this side may send before
// blocking on a WINDOW_UPDATE from the peer.
func (s *Stream) SendWindow() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendWindow
}

// AddSendWindow applies a WINDOW_UPDATE increment (spec.md §4.C flow
// control), returning a FLOW_CONTROL_ERROR stream error and leaving the
// window unchanged if the sum would exceed MaxWindowSize.
func (s *Stream) AddSendWindow(n int32) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := int64(s.sendWindow) + int64(n)
	if next > int64(frame.MaxWindowSize) {
		return 0, frame.NewStreamError(s.id, frame.ErrCodeFlowControl, "window increment overflow")
	}
	s.sendWindow = int32(next)
	return s.sendWindow, nil
}

// ConsumeSendWindow debits n bytes just sent.
func (s *Stream) ConsumeSendWindow(n int32) {
	s.mu.Lock()
	s.sendWindow -= n
	s.mu.Unlock()
}

// RecvWindow returns the remaining bytes this side will accept before the
// connection driver must send a WINDOW_UPDATE to replenish it.
func (s *Stream) RecvWindow() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recvWindow
}

// ConsumeRecvWindow debits n received bytes (DATA payload plus padding,
// spec.md §4.C), returning a flow-control error if the peer sent more
// than the advertised window allowed.
func (s *Stream) ConsumeRecvWindow(n int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recvWindow -= n
	if s.recvWindow < 0 {
		return frame.NewStreamError(s.id, frame.ErrCodeFlowControl, "flow control window exceeded")
	}
	return nil
}

// ReplenishRecvWindow credits n bytes back after the driver emits a
// WINDOW_UPDATE for them.
func (s *Stream) ReplenishRecvWindow(n int32) {
	s.mu.Lock()
	s.recvWindow += n
	s.mu.Unlock()
}
