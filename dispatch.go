package grpchost

import (
	"encoding/base64"
	"io"
	"strconv"
	"strings"

	"github.com/grpchost/grpchost/codec"
	"github.com/grpchost/grpchost/codes"
	"github.com/grpchost/grpchost/internal/stream"
	"github.com/grpchost/grpchost/metadata"
	"github.com/grpchost/grpchost/status"
)

// dispatch resolves the method named by req.Path, validates the request
// per spec.md §4.F, and hands it off to a per-request goroutine so the
// connection's single reader never blocks on handler work (spec.md §5).
func (sc *conn) dispatch(st *stream.Stream, rs *requestState, req stream.Request, endStream bool) error {
	if err := validateRequest(req); err != nil {
		return sc.sendTrailersOnly(st.ID(), rs, err)
	}

	svc, method, ok := sc.srv.registry.Lookup(req.Path)
	if !ok {
		msg := "Method not found: " + req.Path
		return sc.sendTrailersOnly(st.ID(), rs, status.New(codes.Unimplemented, msg))
	}

	rs.method = method
	rs.svc = svc
	rs.compressor = negotiateCompressor(sc.srv, req)

	incoming := incomingMetadata(req)
	rs.ctx = NewContext(sc.srv.baseContext(), req.Path, sc.c.RemoteAddr().String(), incoming)
	st.Data = rs.ctx

	go sc.runRequest(st, rs)
	return nil
}

// validateRequest applies spec.md §4.F's required-header checks.
func validateRequest(req stream.Request) error {
	if req.Method != "POST" {
		return status.New(codes.InvalidArgument, "gRPC requires :method = POST")
	}
	ct, _ := req.Header("content-type")
	if !strings.HasPrefix(ct, "application/grpc") {
		return status.New(codes.InvalidArgument, "unsupported content-type: "+ct)
	}
	te, _ := req.Header("te")
	if !strings.Contains(te, "trailers") {
		return status.New(codes.InvalidArgument, `missing "te: trailers"`)
	}
	return nil
}

// negotiateCompressor resolves grpc-encoding to a registered Compressor,
// falling back to Identity when compression is disabled, absent, or names
// an unregistered algorithm (spec.md §4.M).
func negotiateCompressor(srv *Server, req stream.Request) codec.Compressor {
	if !srv.options.CompressionEnabled {
		return codec.Identity
	}
	enc, ok := req.Header("grpc-encoding")
	if !ok {
		return codec.Identity
	}
	c, ok := srv.compressors.Lookup(enc)
	if !ok {
		return codec.Identity
	}
	return c
}

func incomingMetadata(req stream.Request) metadata.MD {
	md := metadata.MD{}
	for _, f := range req.Headers {
		if metadata.IsReserved(f.Name) {
			continue
		}
		v := f.Value
		if metadata.IsBinaryKey(f.Name) {
			// padded or unpadded base64; a value that fails to decode is kept as received
			if b, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(v, "=")); err == nil {
				v = string(b)
			}
		}
		md.Append(f.Name, v)
	}
	return md
}

// sendTrailersOnly emits a single HEADERS frame carrying grpc-status (and
// grpc-message) with END_STREAM, used for messageless responses (spec.md
// §4.G "Trailers-only").
func (sc *conn) sendTrailersOnly(streamID uint32, rs *requestState, err error) error {
	st := status.FromError(err, sc.srv.options.DebugMode)
	md := metadata.MD{
		":status":      {"200"},
		"content-type": {"application/grpc"},
		"grpc-status":  {strconv.Itoa(int(st.Code))},
	}
	if st.Message != "" {
		md.Set("grpc-message", st.Message)
	}
	sc.write <- outboundAction{Kind: actionHeaders, StreamID: streamID, Headers: md, EndStream: true}
	delete(sc.requests, streamID)
	sc.streams.Del(streamID)
	return nil
}

// runRequest executes the resolved method in its own goroutine, per
// spec.md §4.F's four per-pattern dispatchers, and always terminates the
// stream with a trailers block carrying grpc-status.
func (sc *conn) runRequest(st *stream.Stream, rs *requestState) {
	interceptors := sc.srv.interceptorsFor(rs.svc.Name)
	ctx := rs.ctx

	recv := func() (any, error) {
		m, ok := <-rs.inbound
		if !ok {
			if rs.inboundErr != nil && rs.inboundErr != io.EOF {
				return nil, rs.inboundErr
			}
			return nil, io.EOF
		}
		data := m.Data
		if m.Compressed {
			var err error
			data, err = rs.compressor.Decompress(data)
			if err != nil {
				return nil, status.New(codes.InvalidArgument, "failed to decompress request message")
			}
		}
		req := rs.method.NewRequest()
		if err := rs.method.RequestCodec.Unmarshal(data, req); err != nil {
			return nil, status.New(codes.InvalidArgument, "malformed request message")
		}
		return req, nil
	}

	send := func(resp any) error {
		payload, err := rs.method.ResponseCodec.Marshal(resp)
		if err != nil {
			return status.New(codes.Internal, "failed to encode response message")
		}
		compressed := false
		if rs.compressor != codec.Identity && sc.srv.options.CompressionEnabled && len(payload) >= sc.srv.options.CompressionThreshold {
			out, err := rs.compressor.Compress(payload)
			if err != nil {
				return status.New(codes.Internal, "failed to compress response message")
			}
			payload = out
			compressed = true
		}
		data := stream.AppendMessage(nil, payload, compressed)
		if !rs.headersSent {
			sc.sendResponseHeaders(st.ID(), ctx, rs)
			rs.headersSent = true
		}
		sc.write <- outboundAction{Kind: actionData, StreamID: st.ID(), Data: data}
		return nil
	}

	var err error
	switch rs.method.Kind {
	case Unary:
		err = sc.runUnary(st, rs, ctx, interceptors, recv, send)
	case ServerStreaming:
		err = sc.runServerStream(rs, ctx, interceptors, recv, send)
	case ClientStreaming:
		err = sc.runClientStream(rs, ctx, interceptors, recv, send)
	case BidiStreaming:
		err = sc.runBidiStream(rs, ctx, interceptors, recv, send)
	}

	sc.finishRequest(st, rs, ctx, err)
}

func (sc *conn) runUnary(st *stream.Stream, rs *requestState, ctx *Context, interceptors []Interceptor, recv func() (any, error), send func(any) error) error {
	req, err := recv()
	if err != nil {
		return err
	}
	h := Chain(interceptors, rs.method, func(ctx *Context, payload any) (any, error) {
		return rs.method.Unary(ctx, payload)
	})
	resp, err := h(ctx, req)
	if err != nil {
		return err
	}
	return send(resp)
}

func (sc *conn) runServerStream(rs *requestState, ctx *Context, interceptors []Interceptor, recv func() (any, error), send func(any) error) error {
	req, err := recv()
	if err != nil {
		return err
	}
	h := Chain(interceptors, rs.method, func(ctx *Context, payload any) (any, error) {
		return nil, rs.method.ServerStream(ctx, payload, send)
	})
	_, err = h(ctx, req)
	return err
}

func (sc *conn) runClientStream(rs *requestState, ctx *Context, interceptors []Interceptor, recv func() (any, error), send func(any) error) error {
	h := Chain(interceptors, rs.method, func(ctx *Context, payload any) (any, error) {
		return rs.method.ClientStream(ctx, recv)
	})
	resp, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return send(resp)
}

func (sc *conn) runBidiStream(rs *requestState, ctx *Context, interceptors []Interceptor, recv func() (any, error), send func(any) error) error {
	h := Chain(interceptors, rs.method, func(ctx *Context, payload any) (any, error) {
		return nil, rs.method.BidiStream(ctx, recv, send)
	})
	_, err := h(ctx, nil)
	return err
}

func (sc *conn) sendResponseHeaders(streamID uint32, ctx *Context, rs *requestState) {
	md := metadata.MD{
		":status":              {"200"},
		"content-type":         {"application/grpc"},
		"grpc-accept-encoding": {"identity,gzip"},
	}
	if rs.compressor != codec.Identity {
		md.Set("grpc-encoding", rs.compressor.Name())
	}
	for k, v := range ctx.ResponseHeaders {
		md[k] = v
	}
	sc.write <- outboundAction{Kind: actionHeaders, StreamID: streamID, Headers: md, EndStream: false}
}

// finishRequest emits the terminal trailers HEADERS frame carrying
// grpc-status and clears the stream's bookkeeping.
func (sc *conn) finishRequest(st *stream.Stream, rs *requestState, ctx *Context, err error) {
	gs := status.FromError(err, sc.srv.options.DebugMode)

	trailers := metadata.MD{"grpc-status": {strconv.Itoa(int(gs.Code))}}
	if gs.Message != "" {
		trailers.Set("grpc-message", gs.Message)
	}
	for k, v := range ctx.ResponseTrailers {
		trailers[k] = v
	}

	if !rs.headersSent {
		trailers[":status"] = []string{"200"}
		trailers["content-type"] = []string{"application/grpc"}
	}

	sc.write <- outboundAction{Kind: actionTrailers, StreamID: st.ID(), Headers: trailers, EndStream: true}
	_ = st.SendEndStream()

	delete(sc.requests, st.ID())
	sc.streams.Del(st.ID())
}
