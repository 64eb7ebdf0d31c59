// Package codec defines the opaque message-serialization contract spec.md
// §1 and §9 leave external: "encode(value) -> bytes / decode(bytes) ->
// value per registered type". THE CORE never looks inside a message; it
// only calls Codec at the gRPC-framing boundary.
package codec

import "encoding/json"

// Codec marshals/unmarshals RPC messages to/from the bytes carried inside
// gRPC message framing (spec.md §6).
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSON is a Codec backed by encoding/json and the default of NewRegistry.
// The server does not pick it from the content-type; a method uses it when
// its MethodDescriptor names it as RequestCodec/ResponseCodec. It exists so
// an embedder can exercise the server without bringing their own protobuf
// toolchain; a production deployment is expected to set its own Codec
// (e.g. backed by protobuf) per method.
var JSON Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Raw is a passthrough Codec for handlers that already work in bytes
// (e.g. the reflection service relays file descriptor bytes verbatim).
var Raw Codec = rawCodec{}

type rawCodec struct{}

func (rawCodec) Name() string { return "raw" }

func (rawCodec) Marshal(v any) ([]byte, error) {
	if b, ok := v.([]byte); ok {
		return b, nil
	}
	return nil, errNotBytes
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	p, ok := v.(*[]byte)
	if !ok {
		return errNotBytes
	}
	*p = append((*p)[:0], data...)
	return nil
}

var errNotBytes = &codecError{"raw codec requires a []byte value"}

type codecError struct{ msg string }

func (e *codecError) Error() string { return e.msg }

// Registry maps a codec name ("json", "raw", or "" for the default) to a
// Codec. The server's dispatch path does not consult it: each
// MethodDescriptor carries its own codecs, and a request's content-type
// only has to start with "application/grpc".
type Registry struct {
	byName map[string]Codec
	def    Codec
}

// NewRegistry returns a Registry with JSON registered under "json" and as
// the default for the bare "application/grpc" content-type.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Codec), def: JSON}
	r.Register(JSON)
	r.Register(Raw)
	return r
}

// Register adds c, keyed by c.Name().
func (r *Registry) Register(c Codec) { r.byName[c.Name()] = c }

// SetDefault sets the codec used for the bare "application/grpc" content
// type (no "+name" suffix).
func (r *Registry) SetDefault(c Codec) { r.def = c }

// Lookup resolves name ("" for the default) to a Codec.
func (r *Registry) Lookup(name string) (Codec, bool) {
	if name == "" {
		return r.def, r.def != nil
	}
	c, ok := r.byName[name]
	return c, ok
}
