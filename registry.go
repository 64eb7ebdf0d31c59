package grpchost

import (
	"fmt"
	"strings"
	"sync"

	"github.com/grpchost/grpchost/codec"
)

// Kind is an RPC's streaming shape (spec.md §3 "MethodDescriptor").
type Kind int

const (
	Unary Kind = iota
	ServerStreaming
	ClientStreaming
	BidiStreaming
)

func (k Kind) String() string {
	switch k {
	case Unary:
		return "unary"
	case ServerStreaming:
		return "server_streaming"
	case ClientStreaming:
		return "client_streaming"
	case BidiStreaming:
		return "bidi_streaming"
	}
	return "unknown"
}

// UnaryHandler handles a UNARY method: decode one request, return one
// response or an error.
type UnaryHandler func(ctx *Context, req any) (any, error)

// ServerStreamHandler handles a SERVER_STREAMING method: one request, a
// sink of responses.
type ServerStreamHandler func(ctx *Context, req any, send func(any) error) error

// ClientStreamHandler handles a CLIENT_STREAMING method: a request
// iterator, one response.
type ClientStreamHandler func(ctx *Context, recv func() (any, error)) (any, error)

// BidiStreamHandler handles a BIDI_STREAMING method: both a request
// iterator and a response sink.
type BidiStreamHandler func(ctx *Context, recv func() (any, error), send func(any) error) error

// MethodDescriptor describes one registered RPC method (spec.md §3).
type MethodDescriptor struct {
	Name          string
	Kind          Kind
	RequestCodec  codec.Codec
	ResponseCodec codec.Codec
	NewRequest    func() any

	Unary        UnaryHandler
	ServerStream ServerStreamHandler
	ClientStream ClientStreamHandler
	BidiStream   BidiStreamHandler
}

// ServiceDescriptor describes one registered gRPC service and its
// methods, keyed by bare method name (spec.md §3).
type ServiceDescriptor struct {
	Name           string
	Methods        map[string]*MethodDescriptor
	FileDescriptor []byte // opaque bytes for reflection pass-through
}

// AddMethod registers m under its Name, returning the ServiceDescriptor
// for chaining.
func (s *ServiceDescriptor) AddMethod(m *MethodDescriptor) *ServiceDescriptor {
	if s.Methods == nil {
		s.Methods = make(map[string]*MethodDescriptor)
	}
	s.Methods[m.Name] = m
	return s
}

// Registry maps service name -> ServiceDescriptor, keyed off the
// ":path" header's "/service/method" split (spec.md §4.F). Grounded on
// the teacher's small pool-keyed registries (e.g. frame.payloadPools):
// a fixed lookup table frozen before the connection driver starts
// reading, never mutated concurrently with RPC dispatch.
type Registry struct {
	mu       sync.RWMutex
	services map[string]*ServiceDescriptor
	frozen   bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{services: make(map[string]*ServiceDescriptor)}
}

// Register adds svc. Register must be called before the server enters
// RUNNING (spec.md §4.I "Service registration is permitted only in
// STOPPED").
func (r *Registry) Register(svc *ServiceDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("grpchost: cannot register %q after the server has started", svc.Name)
	}
	r.services[svc.Name] = svc
	return nil
}

// Freeze locks the registry against further registration, called when
// the server transitions to RUNNING (spec.md §5). Lookup still takes the
// read lock afterwards.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Lookup splits path ("/service/method") and resolves the method
// descriptor.
func (r *Registry) Lookup(path string) (*ServiceDescriptor, *MethodDescriptor, bool) {
	service, method, ok := splitPath(path)
	if !ok {
		return nil, nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[service]
	if !ok {
		return nil, nil, false
	}
	m, ok := svc.Methods[method]
	if !ok {
		return svc, nil, false
	}
	return svc, m, true
}

// Services returns the registered service names, used by the reflection
// service's list_services.
func (r *Registry) Services() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.services))
	for name := range r.services {
		out = append(out, name)
	}
	return out
}

// Service returns the descriptor for name, if registered.
func (r *Registry) Service(name string) (*ServiceDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[name]
	return svc, ok
}

func splitPath(path string) (service, method string, ok bool) {
	path = strings.TrimPrefix(path, "/")
	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return "", "", false
	}
	return path[:i], path[i+1:], true
}
