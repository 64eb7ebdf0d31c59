package grpchost

import (
	"errors"
	"io"
	"strings"

	"github.com/grpchost/grpchost/codec"
)

const ReflectionServiceName = "grpc.reflection.v1alpha.ServerReflection"

// ReflectionRequest mirrors the relevant oneof arms of
// grpc.reflection.v1alpha.ServerReflectionRequest (spec.md §4.H); exactly
// one of the three should be set per message, matching the upstream
// bidirectional-stream protocol.
type ReflectionRequest struct {
	ListServices         string `json:"list_services,omitempty"`
	FileContainingSymbol string `json:"file_containing_symbol,omitempty"`
	FileByFilename       string `json:"file_by_filename,omitempty"`
}

// ReflectionResponse mirrors ServerReflectionResponse: exactly one of
// ServiceNames, FileDescriptors or Error is populated.
type ReflectionResponse struct {
	ServiceNames    []string         `json:"service_names,omitempty"`
	FileDescriptors [][]byte         `json:"file_descriptors,omitempty"`
	Error           *ReflectionError `json:"error,omitempty"`
}

// ReflectionError mirrors ErrorResponse; code=5 (NOT_FOUND) for an
// unresolved symbol or filename (spec.md §4.H).
type ReflectionError struct {
	Code    int32  `json:"error_code"`
	Message string `json:"error_message"`
}

const reflectionNotFoundCode = 5

// RegisterReflection wires the built-in Reflection service into srv's
// registry as a bidirectional-streaming RPC, the shape the upstream
// ServerReflectionInfo method uses so a single long-lived stream can
// carry many request/response pairs.
func RegisterReflection(srv *Server) {
	svc := &ServiceDescriptor{Name: ReflectionServiceName}

	svc.AddMethod(&MethodDescriptor{
		Name:          "ServerReflectionInfo",
		Kind:          BidiStreaming,
		RequestCodec:  codec.JSON,
		ResponseCodec: codec.JSON,
		NewRequest:    func() any { return &ReflectionRequest{} },
		BidiStream: func(ctx *Context, recv func() (any, error), send func(any) error) error {
			for {
				m, err := recv()
				if err != nil {
					return mapRecvEOF(err)
				}
				req := m.(*ReflectionRequest)
				resp := handleReflectionRequest(srv, req)
				if err := send(resp); err != nil {
					return err
				}
			}
		},
	})

	_ = srv.registry.Register(svc)
}

func mapRecvEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// findServiceOwningSymbol matches a fully-qualified symbol
// ("pkg.Service" or "pkg.Service.Method") against registered service
// names, since the dot-qualified reflection symbol space doesn't share
// the "/service/method" slash convention req.Path uses.
func findServiceOwningSymbol(srv *Server, symbol string) *ServiceDescriptor {
	for _, name := range srv.registry.Services() {
		if symbol == name || strings.HasPrefix(symbol, name+".") {
			svc, _ := srv.registry.Service(name)
			return svc
		}
	}
	return nil
}

func handleReflectionRequest(srv *Server, req *ReflectionRequest) *ReflectionResponse {
	switch {
	case req.ListServices != "" || (req.FileContainingSymbol == "" && req.FileByFilename == ""):
		return &ReflectionResponse{ServiceNames: srv.registry.Services()}

	case req.FileContainingSymbol != "":
		svc := findServiceOwningSymbol(srv, req.FileContainingSymbol)
		if svc == nil || svc.FileDescriptor == nil {
			return &ReflectionResponse{Error: &ReflectionError{
				Code:    reflectionNotFoundCode,
				Message: "symbol not found: " + req.FileContainingSymbol,
			}}
		}
		return &ReflectionResponse{FileDescriptors: [][]byte{svc.FileDescriptor}}

	case req.FileByFilename != "":
		for _, name := range srv.registry.Services() {
			svc, _ := srv.registry.Service(name)
			if svc.FileDescriptor != nil {
				return &ReflectionResponse{FileDescriptors: [][]byte{svc.FileDescriptor}}
			}
		}
		return &ReflectionResponse{Error: &ReflectionError{
			Code:    reflectionNotFoundCode,
			Message: "file not found: " + req.FileByFilename,
		}}
	}

	return &ReflectionResponse{Error: &ReflectionError{
		Code:    reflectionNotFoundCode,
		Message: "malformed reflection request",
	}}
}
