// Package grpchost is a gRPC server core: HTTP/2 transport, HPACK, gRPC
// message framing and a dispatch fabric supporting unary, server, client
// and bidirectional streaming, with built-in health/reflection services.
package grpchost

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/grpchost/grpchost/codec"
)

// LifecycleState is the server's position in spec.md §4.I's state
// machine.
type LifecycleState int32

const (
	Stopped LifecycleState = iota
	Starting
	Running
	Draining
	Stopping
)

func (s LifecycleState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopping:
		return "stopping"
	}
	return "unknown"
}

// Server is a gRPC server: a bound listener, a frozen ServiceRegistry, an
// interceptor chain, and the options that parameterize every connection
// driver it spawns.
type Server struct {
	options     ServerOptions
	registry    *Registry
	logger      *zap.Logger
	compressors *codec.CompressorRegistry

	mu                  sync.Mutex
	state               LifecycleState
	globalInterceptors  []Interceptor
	serviceInterceptors map[string][]Interceptor

	health *healthState

	listener net.Listener
	grp      *errgroup.Group
	grpCtx   context.Context
	cancel   context.CancelFunc

	connsMu sync.Mutex
	conns   map[*conn]struct{}

	tls *tlsManager
}

// NewServer constructs a Server in the Stopped state. logger is typically
// built with zap.NewProduction()/zap.NewDevelopment() by the embedder;
// passing nil falls back to zap.NewNop() so the server never panics on a
// forgotten logger the way the teacher's own server never required one
// for fasthttp.Server either.
func NewServer(opts ServerOptions, logger *zap.Logger) (*Server, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("grpchost: invalid ServerOptions: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &Server{
		options:             opts,
		registry:            NewRegistry(),
		logger:              logger,
		serviceInterceptors: make(map[string][]Interceptor),
		health:              newHealthState(),
		compressors:         codec.NewCompressorRegistry(),
		conns:               make(map[*conn]struct{}),
	}
	if opts.TLSConfig != nil {
		tm, err := newTLSManager(*opts.TLSConfig)
		if err != nil {
			return nil, err
		}
		srv.tls = tm
	}
	if opts.EnableHealthCheck {
		RegisterHealth(srv)
	}
	if opts.EnableReflection {
		RegisterReflection(srv)
	}
	return srv, nil
}

// Register adds a service, permitted only while Stopped (spec.md §4.I).
func (s *Server) Register(svc *ServiceDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Stopped {
		return errors.New("grpchost: Register is only permitted while the server is stopped")
	}
	return s.registry.Register(svc)
}

// AddInterceptor appends interceptor, globally or scoped to serviceName
// if given, permitted only while Stopped.
func (s *Server) AddInterceptor(ic Interceptor, serviceName ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Stopped {
		return errors.New("grpchost: AddInterceptor is only permitted while the server is stopped")
	}
	if len(serviceName) == 0 {
		s.globalInterceptors = append(s.globalInterceptors, ic)
		return nil
	}
	name := serviceName[0]
	s.serviceInterceptors[name] = append(s.serviceInterceptors[name], ic)
	return nil
}

func (s *Server) interceptorsFor(service string) []Interceptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]Interceptor(nil), s.globalInterceptors...)
	return append(out, s.serviceInterceptors[service]...)
}

func (s *Server) baseContext() context.Context {
	if s.grpCtx != nil {
		return s.grpCtx
	}
	return context.Background()
}

// Start binds host:port, freezes the registry and interceptor chain, and
// spawns the accept loop (spec.md §4.I).
func (s *Server) Start(host string, port int) error {
	s.mu.Lock()
	if s.state != Stopped {
		s.mu.Unlock()
		return fmt.Errorf("grpchost: Start called in state %s", s.state)
	}
	s.state = Starting
	s.mu.Unlock()

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return err
	}
	if s.options.MaxConcurrentRequests > 0 {
		ln = netutil.LimitListener(ln, s.options.MaxConcurrentRequests)
	}
	if s.tls != nil {
		ln = s.tls.Wrap(ln)
	}
	s.listener = ln

	s.registry.Freeze()

	ctx, cancel := context.WithCancel(context.Background())
	s.grpCtx = ctx
	s.cancel = cancel
	grp, gctx := errgroup.WithContext(ctx)
	s.grp = grp
	s.grpCtx = gctx

	s.mu.Lock()
	s.state = Running
	s.mu.Unlock()

	grp.Go(func() error { return s.acceptLoop() })
	return nil
}

func (s *Server) acceptLoop() error {
	for {
		c, err := s.listener.Accept()
		if err != nil {
			if s.stateIs(Stopping) || s.stateIs(Stopped) {
				return nil
			}
			return err
		}
		sc := newConn(c, s)
		s.trackConn(sc)
		s.grp.Go(func() error {
			defer s.untrackConn(sc)
			sc.serve()
			return nil
		})
	}
}

func (s *Server) trackConn(sc *conn) {
	s.connsMu.Lock()
	s.conns[sc] = struct{}{}
	s.connsMu.Unlock()
}

func (s *Server) untrackConn(sc *conn) {
	s.connsMu.Lock()
	delete(s.conns, sc)
	s.connsMu.Unlock()
}

// closeAllConns force-closes every live connection, unblocking both the
// writer goroutine (parked on flow-control credit) and the reader
// goroutine (parked on a socket read) for each (spec.md §4.I "forceful
// Stop ... immediate close of listener + all connections").
func (s *Server) closeAllConns() {
	s.connsMu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for sc := range s.conns {
		conns = append(conns, sc)
	}
	s.connsMu.Unlock()
	for _, sc := range conns {
		sc.Close()
	}
}

func (s *Server) stateIs(st LifecycleState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == st
}

// Stop transitions Running -> Draining -> Stopping -> Stopped. force
// closes the listener and all connections immediately; otherwise it waits
// up to timeout (or options.DrainTimeout) for in-flight requests to
// finish.
func (s *Server) Stop(force bool, timeout time.Duration) error {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return nil
	}
	s.state = Draining
	s.mu.Unlock()

	if timeout <= 0 {
		timeout = s.options.DrainTimeout
	}

	_ = s.listener.Close()

	s.mu.Lock()
	s.state = Stopping
	s.mu.Unlock()

	if force {
		s.closeAllConns()
		s.cancel()
	} else {
		done := make(chan struct{})
		go func() {
			_ = s.grp.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(timeout):
			s.closeAllConns()
			s.cancel()
		}
	}

	s.mu.Lock()
	s.state = Stopped
	s.mu.Unlock()
	return nil
}

// ReloadTLS atomically replaces the TLS certificate material; in-flight
// connections keep their pre-reload context (spec.md §4.E, §9).
func (s *Server) ReloadTLS(cfg TLSConfig) error {
	if s.tls == nil {
		return errors.New("grpchost: server was not started with TLS")
	}
	return s.tls.Reload(cfg)
}

// SetHealth sets service's serving status (spec.md §4.H); "" names the
// overall server.
func (s *Server) SetHealth(service string, status ServingStatus) {
	s.health.Set(service, status)
}

// GetHealth returns service's serving status.
func (s *Server) GetHealth(service string) ServingStatus {
	return s.health.Check(service)
}
