package grpchost

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// TLSVersion pins the minimum acceptable TLS protocol version (spec.md
// §6 "TLS config").
type TLSVersion string

const (
	TLSv1_2 TLSVersion = "TLSv1_2"
	TLSv1_3 TLSVersion = "TLSv1_3"
)

// TLSConfig describes how the server loads its certificate material and
// whether it requires a client certificate (spec.md §6, §4.E).
type TLSConfig struct {
	CertChainPath     string `validate:"required"`
	PrivateKeyPath    string `validate:"required"`
	ClientCAPath      string
	RequireClientCert bool
	MinVersion        TLSVersion `validate:"omitempty,oneof=TLSv1_2 TLSv1_3"`
}

// ServerOptions carries every tunable named in spec.md §6's embedding
// API surface. Defaults are applied by NewServer; validator tags catch an
// embedder's malformed struct the way the teacher's own `Server.s
// *fasthttp.Server` leans on fasthttp's configuration struct, generalized
// here with go-playground/validator since grpchost has no single upstream
// struct to borrow validation from.
type ServerOptions struct {
	MaxMessageSize        int    `validate:"gte=0"`
	MaxConcurrentStreams  uint32 `validate:"gte=0"`
	MaxConcurrentRequests int    `validate:"gte=0"`
	KeepaliveInterval     time.Duration
	KeepaliveTimeout      time.Duration
	IdleTimeout           time.Duration
	DrainTimeout          time.Duration

	TLSConfig *TLSConfig `validate:"omitempty"`

	EnableHealthCheck    bool
	EnableReflection     bool
	DebugMode            bool
	LogRequests          bool
	CompressionEnabled   bool
	CompressionThreshold int `validate:"gte=0"`
	SupportedCodecs      []string
}

// DefaultOptions returns ServerOptions populated with spec.md §6's
// defaults.
func DefaultOptions() ServerOptions {
	return ServerOptions{
		MaxMessageSize:        4 << 20,
		MaxConcurrentStreams:  100,
		MaxConcurrentRequests: 0,
		KeepaliveTimeout:      20 * time.Second,
		DrainTimeout:          30 * time.Second,
		CompressionThreshold:  1024,
		SupportedCodecs:       []string{"json"},
	}
}

var validate = validator.New()

// Validate checks o against its validator tags and applies defaults for
// zero-valued fields that spec.md §6 gives a default.
func (o *ServerOptions) Validate() error {
	def := DefaultOptions()
	if o.MaxMessageSize == 0 {
		o.MaxMessageSize = def.MaxMessageSize
	}
	if o.MaxConcurrentStreams == 0 {
		o.MaxConcurrentStreams = def.MaxConcurrentStreams
	}
	if o.KeepaliveTimeout == 0 {
		o.KeepaliveTimeout = def.KeepaliveTimeout
	}
	if o.DrainTimeout == 0 {
		o.DrainTimeout = def.DrainTimeout
	}
	if o.CompressionThreshold == 0 {
		o.CompressionThreshold = def.CompressionThreshold
	}
	if len(o.SupportedCodecs) == 0 {
		o.SupportedCodecs = def.SupportedCodecs
	}

	if err := validate.Struct(o); err != nil {
		return err
	}
	if o.TLSConfig != nil {
		if o.TLSConfig.MinVersion == "" {
			o.TLSConfig.MinVersion = TLSv1_2
		}
		return validate.Struct(o.TLSConfig)
	}
	return nil
}
