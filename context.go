package grpchost

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/grpchost/grpchost/metadata"
)

// Context is the per-RPC ServerContext (spec.md §3): method path, peer
// address, incoming/outgoing metadata, deadline and cancellation, and the
// buffered response headers/trailers a handler or interceptor may touch
// before they are flushed to the wire.
type Context struct {
	context.Context
	cancel context.CancelFunc

	MethodPath string
	PeerAddr   string
	RequestID  string

	Incoming metadata.MD

	// ResponseHeaders/ResponseTrailers are filled by the handler and its
	// interceptors (SetHeader/SetTrailer) and read by the connection
	// driver when it sends the response headers and the trailers.
	ResponseHeaders  metadata.MD
	ResponseTrailers metadata.MD

	deadline time.Time
}

// NewContext builds a Context rooted in parent, parsing grpc-timeout (if
// present) into an absolute deadline (spec.md §4.G).
func NewContext(parent context.Context, methodPath, peerAddr string, incoming metadata.MD) *Context {
	ctx := &Context{
		MethodPath:       methodPath,
		PeerAddr:         peerAddr,
		RequestID:        uuid.NewString(),
		Incoming:         incoming,
		ResponseHeaders:  metadata.MD{},
		ResponseTrailers: metadata.MD{},
	}

	base := parent
	if vals := incoming.Get("grpc-timeout"); len(vals) > 0 {
		if d, err := ParseGRPCTimeout(vals[0]); err == nil {
			ctx.deadline = time.Now().Add(d)
			var c context.CancelFunc
			base, c = context.WithDeadline(parent, ctx.deadline)
			ctx.cancel = c
		}
	}
	if ctx.cancel == nil {
		base, ctx.cancel = context.WithCancel(parent)
	}
	ctx.Context = base
	return ctx
}

// Cancel marks the request cancelled; the connection driver calls it on
// RST_STREAM receipt. Deadline expiry and server shutdown end the request
// through its deadline and parent contexts instead, which Cancelled
// reports the same way.
func (c *Context) Cancel() { c.cancel() }

// Cancelled reports whether the request has been cancelled or its
// deadline has passed.
func (c *Context) Cancelled() bool {
	select {
	case <-c.Done():
		return true
	default:
		return false
	}
}

// Deadline reports the absolute deadline, if grpc-timeout was present.
func (c *Context) Deadline() (time.Time, bool) {
	if c.deadline.IsZero() {
		return time.Time{}, false
	}
	return c.deadline, true
}

// SetHeader adds a value to the buffered response headers, sent with the
// first HEADERS frame of the response.
func (c *Context) SetHeader(key, value string) { c.ResponseHeaders.Append(key, value) }

// SetTrailer adds a value to the buffered response trailers, sent with
// the terminal HEADERS frame.
func (c *Context) SetTrailer(key, value string) { c.ResponseTrailers.Append(key, value) }

// grpcTimeoutUnit maps spec.md §6's timeout grammar unit letters to a
// time.Duration multiplier.
var grpcTimeoutUnit = map[byte]time.Duration{
	'H': time.Hour,
	'M': time.Minute,
	'S': time.Second,
	'm': time.Millisecond,
	'u': time.Microsecond,
	'n': time.Nanosecond,
}

// ParseGRPCTimeout parses the grpc-timeout header grammar
// `[0-9]+ (H|M|S|m|u|n)` (spec.md §6) into a Duration.
func ParseGRPCTimeout(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("grpchost: malformed grpc-timeout %q", s)
	}
	unit, ok := grpcTimeoutUnit[s[len(s)-1]]
	if !ok {
		return 0, fmt.Errorf("grpchost: unknown grpc-timeout unit in %q", s)
	}
	digits := s[:len(s)-1]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, fmt.Errorf("grpchost: malformed grpc-timeout %q", s)
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("grpchost: malformed grpc-timeout %q: %w", s, err)
	}
	return time.Duration(n) * unit, nil
}
