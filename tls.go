package grpchost

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"sync/atomic"
)

// tlsManager loads certificate material and advertises ALPN "h2" for
// every accepted connection, grounded on the teacher's
// fasthttp2.ConfigureServerAndConfig/examples/proxy TLS setup
// (spec.md §4.E). Reload swaps the active *tls.Config atomically so
// in-flight connections, which already captured their own *tls.Config via
// tls.Server at accept time, keep their original material.
type tlsManager struct {
	cfg atomic.Pointer[tls.Config]
}

func newTLSManager(cfg TLSConfig) (*tlsManager, error) {
	tm := &tlsManager{}
	built, err := buildTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	tm.cfg.Store(built)
	return tm, nil
}

func buildTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(cfg.CertChainPath, cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("grpchost: loading TLS certificate: %w", err)
	}

	minVersion := uint16(tls.VersionTLS12)
	if cfg.MinVersion == TLSv1_3 {
		minVersion = tls.VersionTLS13
	}

	out := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
		NextProtos:   []string{"h2"},
	}

	if cfg.ClientCAPath != "" {
		pem, err := os.ReadFile(cfg.ClientCAPath)
		if err != nil {
			return nil, fmt.Errorf("grpchost: reading client CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("grpchost: no certificates found in %s", cfg.ClientCAPath)
		}
		out.ClientCAs = pool
		if cfg.RequireClientCert {
			out.ClientAuth = tls.RequireAndVerifyClientCert
		} else {
			out.ClientAuth = tls.VerifyClientCertIfGiven
		}
	} else if cfg.RequireClientCert {
		return nil, fmt.Errorf("grpchost: require_client_cert set without a client_ca_path")
	}

	return out, nil
}

// Reload atomically swaps the active TLS configuration; connections
// already accepted keep the *tls.Config captured when they were accepted
// (spec.md §4.E, §9).
func (tm *tlsManager) Reload(cfg TLSConfig) error {
	built, err := buildTLSConfig(cfg)
	if err != nil {
		return err
	}
	tm.cfg.Store(built)
	return nil
}

// Wrap returns a listener whose Accept wraps each connection with
// tls.Server using whatever *tls.Config is active at the moment it
// arrives; the handshake runs later (negotiateALPN forces it) against that
// captured config, which pins the connection to it for its lifetime and is
// what gives Reload its "in-flight connections keep their original
// context" property.
func (tm *tlsManager) Wrap(ln net.Listener) net.Listener {
	return &tlsListener{Listener: ln, tm: tm}
}

type tlsListener struct {
	net.Listener
	tm *tlsManager
}

func (l *tlsListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return tls.Server(c, l.tm.cfg.Load()), nil
}
