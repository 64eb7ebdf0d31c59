// Package metadata implements the gRPC per-RPC metadata carried on
// context.Context (spec.md §3 "ServerContext", §4.G): ASCII headers plus
// base64-decoded "-bin" binary headers, split into an incoming set (built
// by the connection driver from decoded HEADERS) and an outgoing set
// (built by a handler for trailers).
package metadata

import (
	"context"
	"strings"
)

// MD is an ordered multi-map of header values, keyed case-insensitively.
type MD map[string][]string

// New builds an MD from a plain map, lower-casing keys.
func New(m map[string]string) MD {
	md := make(MD, len(m))
	for k, v := range m {
		md.Append(k, v)
	}
	return md
}

// Get returns all values for key (case-insensitive).
func (md MD) Get(key string) []string {
	return md[strings.ToLower(key)]
}

// Append adds a value under key, preserving insertion order.
func (md MD) Append(key, value string) {
	key = strings.ToLower(key)
	md[key] = append(md[key], value)
}

// Set replaces all values for key.
func (md MD) Set(key string, values ...string) {
	md[strings.ToLower(key)] = values
}

// Clone returns a deep copy of md.
func (md MD) Clone() MD {
	cp := make(MD, len(md))
	for k, v := range md {
		cp[k] = append([]string(nil), v...)
	}
	return cp
}

type incomingKey struct{}
type outgoingKey struct{}

// NewIncomingContext attaches md as the request's incoming metadata.
func NewIncomingContext(ctx context.Context, md MD) context.Context {
	return context.WithValue(ctx, incomingKey{}, md)
}

// FromIncomingContext returns the incoming metadata, if any.
func FromIncomingContext(ctx context.Context) (MD, bool) {
	md, ok := ctx.Value(incomingKey{}).(MD)
	return md, ok
}

// NewOutgoingContext attaches md as metadata a handler wants sent back as
// header/trailer values.
func NewOutgoingContext(ctx context.Context, md MD) context.Context {
	return context.WithValue(ctx, outgoingKey{}, md)
}

// FromOutgoingContext returns the outgoing metadata, if any.
func FromOutgoingContext(ctx context.Context) (MD, bool) {
	md, ok := ctx.Value(outgoingKey{}).(MD)
	return md, ok
}

// IsBinaryKey reports whether key carries base64-encoded binary data per
// the "-bin" suffix convention (spec.md §4.G).
func IsBinaryKey(key string) bool {
	return strings.HasSuffix(strings.ToLower(key), "-bin")
}

// reservedKeys are pseudo-headers and gRPC-internal headers excluded from
// the user-visible metadata view (spec.md §4.G).
var reservedKeys = map[string]bool{
	":method":      true,
	":scheme":      true,
	":path":        true,
	":status":      true,
	":authority":   true,
	"user-agent":   true,
	"content-type": true,
	"te":           true,
}

// IsReserved reports whether key is a pseudo-header or gRPC-reserved
// header excluded from user-visible metadata.
func IsReserved(key string) bool {
	key = strings.ToLower(key)
	if reservedKeys[key] {
		return true
	}
	if strings.HasPrefix(key, ":") {
		return true
	}
	return strings.HasPrefix(key, "grpc-")
}
