// Connection driver (spec.md §4.D), grounded on the teacher's
// server.go/serverConn.go read/dispatch/write-loop shape: a single reader
// goroutine drives the frame loop and stream table, a single writer
// goroutine serializes every outbound frame, and HEADERS/DATA for a given
// stream hand off to a per-request goroutine so handlers can run
// concurrently (spec.md §5).
package grpchost

import (
	"bufio"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/grpchost/grpchost/codec"
	"github.com/grpchost/grpchost/codes"
	"github.com/grpchost/grpchost/internal/frame"
	"github.com/grpchost/grpchost/internal/hpack"
	"github.com/grpchost/grpchost/internal/stream"
	"github.com/grpchost/grpchost/metadata"
	gstatus "github.com/grpchost/grpchost/status"
	"github.com/valyala/fastrand"
	"go.uber.org/zap"
)

const (
	localInitialWindowSize = 1 << 20
	localMaxFrameSize      = frame.DefaultMaxFrameSize
	localHeaderTableSize   = 4096
)

// requestState is the per-stream bookkeeping the driver keeps alongside
// the protocol-level stream.Stream: the decoded Context, resolved
// method, and the inbound message channel a streaming handler pulls from
// (spec.md §5 "one inbound queue of decoded messages per stream").
type requestState struct {
	ctx    *Context
	method *MethodDescriptor
	svc    *ServiceDescriptor

	inbound    chan stream.Message
	inboundErr error

	headerBlock []byte // accumulates HEADERS+CONTINUATION until END_HEADERS
	headersSent bool

	compressor codec.Compressor // grpc-encoding negotiated for this call, Identity if none
}

// conn drives one accepted connection end to end.
type conn struct {
	c  net.Conn
	br *bufio.Reader
	bw *bufio.Writer

	enc *hpack.Encoder
	dec *hpack.Decoder

	streams      *stream.Table
	requests     map[uint32]*requestState
	lastStreamID uint32

	awaitingContinuation uint32 // nonzero stream id between a HEADERS without END_HEADERS and its CONTINUATION; reader goroutine only

	connSendWindow int32
	connRecvWindow int32

	peerMaxFrameSize      uint32
	peerInitialWindowSize int32

	maxConcurrentStreams uint32

	goAwaySent     bool
	goAwayReceived bool

	write     chan outboundAction
	pingAcked chan struct{}

	srv *Server

	mu             sync.Mutex // guards fields the writer goroutine and reader goroutine both touch
	sendWindowCond *sync.Cond // signaled whenever connSendWindow or a stream's send window grows, or the conn closes
	closing        bool
	closeOnce      sync.Once
}

func newConn(c net.Conn, srv *Server) *conn {
	sc := &conn{
		c:                     c,
		br:                    bufio.NewReaderSize(c, localMaxFrameSize*2),
		bw:                    bufio.NewWriterSize(c, localMaxFrameSize*2),
		enc:                   hpack.NewEncoder(localHeaderTableSize),
		dec:                   hpack.NewDecoder(localHeaderTableSize),
		streams:               stream.NewTable(),
		requests:              make(map[uint32]*requestState),
		connSendWindow:        int32(frame.DefaultInitialWindowSize),
		connRecvWindow:        int32(frame.DefaultInitialWindowSize),
		peerMaxFrameSize:      frame.DefaultMaxFrameSize,
		peerInitialWindowSize: int32(frame.DefaultInitialWindowSize),
		maxConcurrentStreams:  srv.options.MaxConcurrentStreams,
		write:                 make(chan outboundAction, 128),
		pingAcked:             make(chan struct{}, 1),
		srv:                   srv,
	}
	sc.sendWindowCond = sync.NewCond(&sc.mu)
	return sc
}

// Close tears the connection down exactly once: it unblocks any writer
// parked waiting for flow-control credit and closes the socket, which in
// turn unblocks the reader's pending frame read. Safe to call concurrently
// with serve() running (spec.md §4.I "forceful Stop closes all
// connections").
func (sc *conn) Close() error {
	sc.closeOnce.Do(func() {
		sc.mu.Lock()
		sc.closing = true
		sc.mu.Unlock()
		sc.sendWindowCond.Broadcast()
		sc.c.Close()
	})
	return nil
}

// serve is the connection's whole lifetime: preface, SETTINGS handshake,
// frame loop. It returns when the connection should close.
func (sc *conn) serve() {
	defer sc.Close()

	logger := sc.srv.logger.With(zap.String("remote_addr", sc.c.RemoteAddr().String()))

	if err := sc.negotiateALPN(); err != nil {
		logger.Debug("ALPN negotiation failed, closing", zap.Error(err))
		return
	}

	if err := sc.readPreface(); err != nil {
		logger.Debug("preface mismatch, closing without GOAWAY", zap.Error(err))
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sc.writeLoop(logger)
	}()

	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		sc.keepaliveLoop(done, logger)
	}()

	sc.write <- outboundAction{Kind: actionSettings}
	sc.sendInitialConnWindowUpdate()

	err := sc.readLoop(logger)
	if err != nil && !errors.Is(err, io.EOF) {
		logger.Info("connection closed", zap.Error(err))
	}

	close(done)
	close(sc.write)
	wg.Wait()
}

// sendInitialConnWindowUpdate raises the connection-level receive window
// from RFC 7540's 65535-byte default up to localInitialWindowSize, the same
// way SETTINGS_INITIAL_WINDOW_SIZE raises every stream's window — the
// connection window has no SETTINGS equivalent (spec.md §4.C), so this is
// the server's one WINDOW_UPDATE(stream 0) bump at startup.
func (sc *conn) sendInitialConnWindowUpdate() {
	inc := localInitialWindowSize - int32(frame.DefaultInitialWindowSize)
	if inc <= 0 {
		return
	}
	sc.mu.Lock()
	sc.connRecvWindow += inc
	sc.mu.Unlock()
	sc.write <- outboundAction{Kind: actionWindowUpdate, StreamID: 0, WindowIncrement: uint32(inc)}
}

// keepaliveLoop pings the connection every options.KeepaliveInterval,
// whether or not other frames are flowing, and closes it if the peer does
// not ack a ping within options.KeepaliveTimeout
// (spec.md §6 keepalive tunables). A zero interval disables it.
func (sc *conn) keepaliveLoop(done <-chan struct{}, logger *zap.Logger) {
	interval := sc.srv.options.KeepaliveInterval
	if interval <= 0 {
		return
	}
	timeout := sc.srv.options.KeepaliveTimeout

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			var data [8]byte
			fillRandom(data[:])
			select {
			case sc.write <- outboundAction{Kind: actionPing, PingData: data}:
			case <-done:
				return
			}
			select {
			case <-sc.pingAcked:
			case <-done:
				return
			case <-time.After(timeout):
				logger.Info("keepalive ping timed out, closing connection")
				sc.Close()
				return
			}
		}
	}
}

// fillRandom fills b with fastrand bytes, the same source the
// teacher uses for its own per-frame randomization (http2utils.Uint32n).
func fillRandom(b []byte) {
	for i := 0; i < len(b); i += 4 {
		v := fastrand.Uint32()
		for j := 0; j < 4 && i+j < len(b); j++ {
			b[i+j] = byte(v >> (8 * j))
		}
	}
}

// negotiateALPN forces the TLS handshake (normally lazy on first I/O) and
// rejects a peer that didn't select "h2" (spec.md §4.E). Plaintext
// connections (no TLS configured) are a no-op.
func (sc *conn) negotiateALPN() error {
	tlsConn, ok := sc.c.(*tls.Conn)
	if !ok {
		return nil
	}
	if err := tlsConn.Handshake(); err != nil {
		return err
	}
	if proto := tlsConn.ConnectionState().NegotiatedProtocol; proto != "h2" {
		return fmt.Errorf("grpchost: peer did not negotiate h2 (got %q)", proto)
	}
	return nil
}

func (sc *conn) readPreface() error {
	buf := make([]byte, frame.PrefaceLen)
	if _, err := io.ReadFull(sc.br, buf); err != nil {
		return err
	}
	if string(buf) != frame.Preface {
		return errors.New("grpchost: bad connection preface")
	}
	return nil
}

// writeLoop is the connection's single writer (spec.md §5): every
// outbound frame, regardless of which stream or goroutine produced it,
// is serialized here to preserve frame-boundary atomicity.
func (sc *conn) writeLoop(logger *zap.Logger) {
	for a := range sc.write {
		if err := sc.applyAction(a); err != nil {
			logger.Debug("write failed", zap.Error(err))
			return
		}
		if err := sc.bw.Flush(); err != nil {
			logger.Debug("flush failed", zap.Error(err))
			return
		}
	}
}

func (sc *conn) applyAction(a outboundAction) error {
	switch a.Kind {
	case actionSettings:
		return sc.writeSettings(false)
	case actionSettingsAck:
		return sc.writeSettings(true)
	case actionPingAck:
		return sc.writePingFrame(a.PingData, true)
	case actionPing:
		return sc.writePingFrame(a.PingData, false)
	case actionGoAway:
		return sc.writeGoAwayFrame(a.GoAwayCode, a.GoAwayMsg)
	case actionRST:
		return sc.writeRSTFrame(a.StreamID, a.RSTCode)
	case actionWindowUpdate:
		return sc.writeWindowUpdateFrame(a.StreamID, a.WindowIncrement)
	case actionHeaders:
		return sc.writeHeadersFrame(a.StreamID, a.Headers, a.EndStream)
	case actionData:
		return sc.writeDataFrame(a.StreamID, a.Data, a.EndStream)
	case actionTrailers:
		return sc.writeHeadersFrame(a.StreamID, a.Headers, true)
	}
	return nil
}

func (sc *conn) writeSettings(ack bool) error {
	h := frame.AcquireHeader()
	defer frame.ReleaseHeader(h)

	s, _ := frame.AcquirePayload(frame.TypeSettings)
	settings := s.(*frame.Settings)
	defer frame.ReleasePayload(settings)

	if ack {
		settings.SetAck(true)
	} else {
		settings.Add(frame.SettingMaxConcurrentStreams, sc.maxConcurrentStreams)
		settings.Add(frame.SettingInitialWindowSize, localInitialWindowSize)
		settings.Add(frame.SettingHeaderTableSize, localHeaderTableSize)
		settings.Add(frame.SettingMaxFrameSize, localMaxFrameSize)
	}

	h.SetStream(0)
	h.SetBody(settings)
	_, err := h.WriteTo(sc.bw)
	return err
}

func (sc *conn) writePingFrame(data [8]byte, ack bool) error {
	h := frame.AcquireHeader()
	defer frame.ReleaseHeader(h)

	body, _ := frame.AcquirePayload(frame.TypePing)
	p := body.(*frame.Ping)
	defer frame.ReleasePayload(p)
	p.SetData(data[:])
	p.SetAck(ack)

	h.SetStream(0)
	h.SetBody(p)
	_, err := h.WriteTo(sc.bw)
	return err
}

func (sc *conn) writeGoAwayFrame(code uint32, msg string) error {
	h := frame.AcquireHeader()
	defer frame.ReleaseHeader(h)

	body, _ := frame.AcquirePayload(frame.TypeGoAway)
	g := body.(*frame.GoAway)
	defer frame.ReleasePayload(g)
	g.SetLastStreamID(sc.lastStreamID)
	g.SetCode(frame.ErrCode(code))
	g.SetDebug([]byte(msg))

	h.SetStream(0)
	h.SetBody(g)
	_, err := h.WriteTo(sc.bw)
	return err
}

func (sc *conn) writeRSTFrame(streamID uint32, code uint32) error {
	h := frame.AcquireHeader()
	defer frame.ReleaseHeader(h)

	body, _ := frame.AcquirePayload(frame.TypeRSTStream)
	r := body.(*frame.RSTStream)
	defer frame.ReleasePayload(r)
	r.SetCode(frame.ErrCode(code))

	h.SetStream(streamID)
	h.SetBody(r)
	_, err := h.WriteTo(sc.bw)
	return err
}

func (sc *conn) writeWindowUpdateFrame(streamID uint32, inc uint32) error {
	h := frame.AcquireHeader()
	defer frame.ReleaseHeader(h)

	body, _ := frame.AcquirePayload(frame.TypeWindowUpdate)
	w := body.(*frame.WindowUpdate)
	defer frame.ReleasePayload(w)
	w.SetIncrement(inc)

	h.SetStream(streamID)
	h.SetBody(w)
	_, err := h.WriteTo(sc.bw)
	return err
}

func (sc *conn) writeHeadersFrame(streamID uint32, md metadata.MD, endStream bool) error {
	var block []byte
	for k, values := range md {
		for _, v := range values {
			block = sc.enc.AppendField(block, hpack.HeaderField{Name: k, Value: v})
		}
	}

	h := frame.AcquireHeader()
	defer frame.ReleaseHeader(h)

	body, _ := frame.AcquirePayload(frame.TypeHeaders)
	hd := body.(*frame.Headers)
	defer frame.ReleasePayload(hd)
	hd.SetEndStream(endStream)
	hd.SetEndHeaders(true)
	hd.SetHeaderBlock(block)

	h.SetStream(streamID)
	h.SetBody(hd)
	_, err := h.WriteTo(sc.bw)
	return err
}

// writeDataFrame partitions data into chunks no larger than the peer's
// MAX_FRAME_SIZE and no larger than the lesser of the connection's and the
// stream's send window, blocking on acquireSendWindow while either is
// exhausted (spec.md §4.C flow control, §5 suspension points).
func (sc *conn) writeDataFrame(streamID uint32, data []byte, endStream bool) error {
	if len(data) == 0 {
		return sc.writeDataChunk(streamID, nil, endStream)
	}
	st := sc.streams.Get(streamID)
	if st == nil {
		return nil
	}
	for len(data) > 0 {
		n, ok := sc.acquireSendWindow(st, int32(len(data)))
		if !ok {
			return errors.New("grpchost: connection closed while waiting for flow-control window")
		}
		chunk := data[:n]
		data = data[n:]
		if err := sc.writeDataChunk(streamID, chunk, endStream && len(data) == 0); err != nil {
			return err
		}
	}
	return nil
}

// acquireSendWindow blocks until at least one byte of both the
// connection's and st's send window is available, then debits up to want
// bytes from both and returns the amount reserved. It wakes on
// sendWindowCond, broadcast whenever either window grows or the
// connection starts closing.
func (sc *conn) acquireSendWindow(st *stream.Stream, want int32) (int32, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for {
		if sc.closing {
			return 0, false
		}
		avail := sc.connSendWindow
		if sw := st.SendWindow(); sw < avail {
			avail = sw
		}
		if mf := int32(sc.peerMaxFrameSize); mf < avail {
			avail = mf
		}
		if avail > want {
			avail = want
		}
		if avail > 0 {
			sc.connSendWindow -= avail
			st.ConsumeSendWindow(avail)
			return avail, true
		}
		sc.sendWindowCond.Wait()
	}
}

func (sc *conn) writeDataChunk(streamID uint32, data []byte, endStream bool) error {
	h := frame.AcquireHeader()
	defer frame.ReleaseHeader(h)

	body, _ := frame.AcquirePayload(frame.TypeData)
	d := body.(*frame.Data)
	defer frame.ReleasePayload(d)
	d.SetBytes(data)
	d.SetEndStream(endStream)

	h.SetStream(streamID)
	h.SetBody(d)
	_, err := h.WriteTo(sc.bw)
	return err
}

// readLoop is the connection's single reader: it owns the HPACK decoder
// state exclusively (spec.md §5) and is the only goroutine that creates
// streams; the stream table itself is also read by the writer and pruned
// by request goroutines, under the table's own lock. It dispatches
// connection-level frames inline and handing per-stream frames to
// handleStreamFrame.
func (sc *conn) readLoop(logger *zap.Logger) error {
	idle := sc.srv.options.IdleTimeout
	for {
		if idle > 0 {
			_ = sc.c.SetReadDeadline(time.Now().Add(idle))
		}
		h := frame.AcquireHeader()
		h.SetMaxLen(localMaxFrameSize)
		_, err := h.ReadFrom(sc.br)
		if err != nil {
			frame.ReleaseHeader(h)
			if errors.Is(err, frame.ErrUnknownFrameType) {
				continue
			}
			return err
		}

		if sc.awaitingContinuation != 0 &&
			(h.Type() != frame.TypeContinuation || h.Stream() != sc.awaitingContinuation) {
			cerr := frame.NewConnError(frame.ErrCodeProtocol, "expected CONTINUATION frame")
			frame.ReleaseHeader(h)
			sc.sendGoAway(cerr.Code, cerr.Msg)
			return cerr
		}

		if h.Stream() == 0 {
			cerr := sc.handleConnFrame(h, logger)
			frame.ReleaseHeader(h)
			if cerr != nil {
				var ce *frame.ConnError
				if errors.As(cerr, &ce) {
					sc.sendGoAway(ce.Code, ce.Msg)
				}
				return cerr
			}
			continue
		}

		if serr := sc.handleStreamFrame(h); serr != nil {
			var se *frame.StreamError
			var ce *frame.ConnError
			switch {
			case errors.As(serr, &se):
				sc.write <- outboundAction{Kind: actionRST, StreamID: se.StreamID, RSTCode: uint32(se.Code)}
			case errors.As(serr, &ce):
				sc.sendGoAway(ce.Code, ce.Msg)
				frame.ReleaseHeader(h)
				return serr
			}
		}
		frame.ReleaseHeader(h)
	}
}

func (sc *conn) sendGoAway(code frame.ErrCode, msg string) {
	if sc.goAwaySent {
		return
	}
	sc.goAwaySent = true
	sc.write <- outboundAction{Kind: actionGoAway, GoAwayCode: uint32(code), GoAwayMsg: msg}
}

func (sc *conn) handleConnFrame(h *frame.Header, logger *zap.Logger) error {
	switch h.Type() {
	case frame.TypeSettings:
		st := h.Body().(*frame.Settings)
		if st.IsAck() {
			return nil
		}
		sc.applyPeerSettings(st)
		sc.write <- outboundAction{Kind: actionSettingsAck}
		return nil
	case frame.TypePing:
		p := h.Body().(*frame.Ping)
		if p.IsAck() {
			select {
			case sc.pingAcked <- struct{}{}:
			default:
			}
			return nil
		}
		var data [8]byte
		copy(data[:], p.Data())
		sc.write <- outboundAction{Kind: actionPingAck, PingData: data}
		return nil
	case frame.TypeWindowUpdate:
		w := h.Body().(*frame.WindowUpdate)
		sc.mu.Lock()
		next := int64(sc.connSendWindow) + int64(w.Increment())
		if next > int64(frame.MaxWindowSize) {
			sc.mu.Unlock()
			return frame.NewConnError(frame.ErrCodeFlowControl, "connection send window increment overflow")
		}
		sc.connSendWindow = int32(next)
		sc.mu.Unlock()
		sc.sendWindowCond.Broadcast()
		return nil
	case frame.TypeGoAway:
		sc.goAwayReceived = true
		return io.EOF
	case frame.TypePriority:
		return nil
	default:
		logger.Debug("unexpected connection-level frame", zap.String("type", h.Type().String()))
		return frame.NewConnError(frame.ErrCodeProtocol, "unexpected frame on stream 0")
	}
}

func (sc *conn) applyPeerSettings(st *frame.Settings) {
	st.ForEach(func(id uint16, val uint32) {
		switch id {
		case frame.SettingMaxFrameSize:
			sc.mu.Lock()
			sc.peerMaxFrameSize = val
			sc.mu.Unlock()
			sc.sendWindowCond.Broadcast()
		case frame.SettingInitialWindowSize:
			delta := int32(val) - sc.peerInitialWindowSize
			sc.peerInitialWindowSize = int32(val)
			sc.streams.Range(func(s *stream.Stream) {
				_, _ = s.AddSendWindow(delta)
			})
			sc.sendWindowCond.Broadcast()
		}
	})
}

func (sc *conn) handleStreamFrame(h *frame.Header) error {
	if sc.goAwaySent && h.Stream() > sc.lastStreamID {
		return nil
	}

	switch h.Type() {
	case frame.TypeHeaders:
		return sc.handleHeaders(h)
	case frame.TypeContinuation:
		return sc.handleContinuation(h)
	case frame.TypeData:
		return sc.handleData(h)
	case frame.TypeWindowUpdate:
		return sc.handleStreamWindowUpdate(h)
	case frame.TypeRSTStream:
		return sc.handleRST(h)
	case frame.TypePriority:
		return nil
	case frame.TypePushPromise:
		return frame.NewConnError(frame.ErrCodeProtocol, "server push is disabled")
	default:
		return frame.NewConnError(frame.ErrCodeProtocol, "unexpected frame kind on stream")
	}
}

func (sc *conn) handleHeaders(h *frame.Header) error {
	streamID := h.Stream()
	if streamID%2 == 0 || streamID <= sc.lastStreamID {
		return frame.NewConnError(frame.ErrCodeProtocol, "invalid client stream id")
	}

	if uint32(sc.streams.Len()) >= sc.maxConcurrentStreams {
		return frame.NewStreamError(streamID, frame.ErrCodeRefusedStream, "max concurrent streams reached")
	}

	sc.lastStreamID = streamID

	st := stream.New(streamID, sc.peerInitialWindowSize, localInitialWindowSize)
	sc.streams.Insert(st)
	if sm := sc.srv.options.MaxMessageSize; sm > 0 {
		st.Reassembler().SetMaxMessageSize(sm)
	}

	rs := &requestState{inbound: make(chan stream.Message, 8)}
	sc.requests[streamID] = rs

	hd := h.Body().(*frame.Headers)
	rs.headerBlock = append(rs.headerBlock, hd.HeaderBlock()...)

	if err := st.OpenByHeaders(hd.EndStream()); err != nil {
		return err
	}

	if hd.EndHeaders() {
		return sc.finishHeaders(st, rs, hd.EndStream())
	}
	sc.awaitingContinuation = streamID
	return nil
}

func (sc *conn) handleContinuation(h *frame.Header) error {
	streamID := h.Stream()
	rs, ok := sc.requests[streamID]
	if !ok {
		return frame.NewConnError(frame.ErrCodeProtocol, "CONTINUATION on unknown stream")
	}
	c := h.Body().(*frame.Continuation)
	rs.headerBlock = append(rs.headerBlock, c.HeaderBlock()...)

	if c.EndHeaders() {
		st := sc.streams.Get(streamID)
		endStream := st.State() == stream.StateHalfClosedRemote
		return sc.finishHeaders(st, rs, endStream)
	}
	return nil
}

func (sc *conn) finishHeaders(st *stream.Stream, rs *requestState, endStream bool) error {
	sc.awaitingContinuation = 0
	fields, err := sc.dec.DecodeFull(rs.headerBlock)
	if err != nil {
		return frame.NewConnError(frame.ErrCodeCompression, "HPACK decode failed")
	}
	rs.headerBlock = nil

	if rs.method != nil {
		// A second END_HEADERS block on an already-dispatched stream would
		// be client trailers, which gRPC clients never send; ignore.
		return nil
	}

	req := stream.SplitPseudoHeaders(fields)
	return sc.dispatch(st, rs, req, endStream)
}

func (sc *conn) handleData(h *frame.Header) error {
	streamID := h.Stream()
	st := sc.streams.Get(streamID)
	rs, ok := sc.requests[streamID]
	if st == nil || !ok {
		return frame.NewStreamError(streamID, frame.ErrCodeStreamClosed, "DATA on unknown stream")
	}

	d := h.Body().(*frame.Data)
	if err := st.ConsumeRecvWindow(int32(d.PaddedLen())); err != nil {
		return err
	}
	sc.mu.Lock()
	sc.connRecvWindow -= int32(d.PaddedLen())
	overflow := sc.connRecvWindow < 0
	sc.mu.Unlock()
	if overflow {
		return frame.NewConnError(frame.ErrCodeFlowControl, "connection flow control window exceeded")
	}

	msgs, err := st.Reassembler().Feed(d.Bytes())
	if err != nil {
		return frame.NewStreamError(streamID, frame.ErrCodeInternal, "message too large")
	}
	for _, m := range msgs {
		rs.inbound <- m
	}

	if d.EndStream() {
		if err := st.RecvEndStream(); err != nil {
			return err
		}
		if rs.inboundErr == nil {
			close(rs.inbound)
			rs.inboundErr = io.EOF
		}
	}

	if st.RecvWindow() < localInitialWindowSize/2 {
		inc := uint32(localInitialWindowSize - st.RecvWindow())
		st.ReplenishRecvWindow(int32(inc))
		sc.write <- outboundAction{Kind: actionWindowUpdate, StreamID: streamID, WindowIncrement: inc}
	}

	sc.mu.Lock()
	connLow := sc.connRecvWindow < localInitialWindowSize/2
	var connInc uint32
	if connLow {
		connInc = uint32(localInitialWindowSize - sc.connRecvWindow)
		sc.connRecvWindow = localInitialWindowSize
	}
	sc.mu.Unlock()
	if connLow {
		sc.write <- outboundAction{Kind: actionWindowUpdate, StreamID: 0, WindowIncrement: connInc}
	}
	return nil
}

func (sc *conn) handleStreamWindowUpdate(h *frame.Header) error {
	st := sc.streams.Get(h.Stream())
	if st == nil {
		return nil
	}
	w := h.Body().(*frame.WindowUpdate)
	_, err := st.AddSendWindow(int32(w.Increment()))
	if err == nil {
		sc.sendWindowCond.Broadcast()
	}
	return err
}

func (sc *conn) handleRST(h *frame.Header) error {
	streamID := h.Stream()
	st := sc.streams.Get(streamID)
	if st == nil {
		return nil
	}
	st.Close()
	if rs, ok := sc.requests[streamID]; ok {
		if rs.ctx != nil {
			rs.ctx.Cancel()
		}
		if rs.inboundErr == nil {
			rs.inboundErr = gstatus.New(codes.Canceled, "stream reset by peer")
			close(rs.inbound)
		}
		delete(sc.requests, streamID)
	}
	sc.streams.Del(streamID)
	return nil
}
