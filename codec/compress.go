package codec

import (
	"bytes"
	"compress/gzip"
	"io"
)

// Compressor implements the byte-to-byte transform named by a
// `grpc-encoding`/`grpc-accept-encoding` value (spec.md §4.M); THE CORE
// treats the compressed payload as opaque, same as Codec does for the
// message value itself.
type Compressor interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// Identity is the no-op Compressor selected when grpc-encoding is absent
// or "identity".
var Identity Compressor = identityCompressor{}

type identityCompressor struct{}

func (identityCompressor) Name() string                           { return "identity" }
func (identityCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (identityCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }

// Gzip wraps stdlib compress/gzip as the "gzip" grpc-encoding transform.
var Gzip Compressor = gzipCompressor{}

type gzipCompressor struct{}

func (gzipCompressor) Name() string { return "gzip" }

func (gzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// CompressorRegistry maps a grpc-encoding name to a Compressor.
type CompressorRegistry struct {
	byName map[string]Compressor
}

// NewCompressorRegistry returns a CompressorRegistry with identity and
// gzip registered.
func NewCompressorRegistry() *CompressorRegistry {
	r := &CompressorRegistry{byName: make(map[string]Compressor)}
	r.Register(Identity)
	r.Register(Gzip)
	return r
}

// Register adds c, keyed by c.Name().
func (r *CompressorRegistry) Register(c Compressor) { r.byName[c.Name()] = c }

// Lookup resolves name ("" or "identity" for the no-op transform) to a
// Compressor.
func (r *CompressorRegistry) Lookup(name string) (Compressor, bool) {
	if name == "" {
		return Identity, true
	}
	c, ok := r.byName[name]
	return c, ok
}
