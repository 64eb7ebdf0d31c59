package grpchost

import (
	"github.com/grpchost/grpchost/codec"
	"github.com/grpchost/grpchost/health"
)

// ServingStatus re-exports health.ServingStatus at the grpchost level so
// embedders never need to import the health subpackage just to call
// SetHealth/GetHealth.
type ServingStatus = health.ServingStatus

const (
	HealthUnknown        = health.Unknown
	HealthServing        = health.Serving
	HealthNotServing     = health.NotServing
	HealthServiceUnknown = health.ServiceUnknown
)

type healthState = health.State

func newHealthState() *healthState { return health.NewState() }

const HealthServiceName = "grpc.health.v1.Health"

// HealthCheckRequest mirrors grpc.health.v1.HealthCheckRequest.
type HealthCheckRequest struct {
	Service string `json:"service"`
}

// HealthCheckResponse mirrors grpc.health.v1.HealthCheckResponse.
type HealthCheckResponse struct {
	Status string `json:"status"`
}

// RegisterHealth wires the built-in Health service (spec.md §4.H) into
// srv's registry as an ordinary service, so it flows through the same
// dispatch fabric, interceptor chain and codec registry as any
// embedder-registered RPC.
func RegisterHealth(srv *Server) {
	svc := &ServiceDescriptor{Name: HealthServiceName}

	svc.AddMethod(&MethodDescriptor{
		Name:          "Check",
		Kind:          Unary,
		RequestCodec:  codec.JSON,
		ResponseCodec: codec.JSON,
		NewRequest:    func() any { return &HealthCheckRequest{} },
		Unary: func(ctx *Context, req any) (any, error) {
			r := req.(*HealthCheckRequest)
			return &HealthCheckResponse{Status: srv.health.Check(r.Service).String()}, nil
		},
	})

	svc.AddMethod(&MethodDescriptor{
		Name:          "Watch",
		Kind:          ServerStreaming,
		RequestCodec:  codec.JSON,
		ResponseCodec: codec.JSON,
		NewRequest:    func() any { return &HealthCheckRequest{} },
		ServerStream: func(ctx *Context, req any, send func(any) error) error {
			r := req.(*HealthCheckRequest)
			ch, cancel := srv.health.Watch(r.Service)
			defer cancel()
			for {
				select {
				case status, ok := <-ch:
					if !ok {
						return nil
					}
					if err := send(&HealthCheckResponse{Status: status.String()}); err != nil {
						return err
					}
				case <-ctx.Done():
					return nil
				}
			}
		},
	})

	_ = srv.registry.Register(svc)
}
