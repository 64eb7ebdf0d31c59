package grpchost

import (
	"time"

	"github.com/grpchost/grpchost/codes"
	"github.com/grpchost/grpchost/status"
	"go.uber.org/zap"
)

// Handler is what an interceptor ultimately wraps: the decoded request
// payload in, the response payload (or error) out. Streaming RPCs see
// payload as the first/only message their Kind allows to flow through an
// interceptor (spec.md's "payload" generalizes across RPC kinds; a
// streaming handler's per-message work happens inside the handler body,
// not across the chain).
type Handler func(ctx *Context, payload any) (any, error)

// Interceptor is middleware around one RPC invocation (spec.md §4.F):
// `(ctx, payload, method_info, next)`, free to short-circuit, mutate
// metadata, wrap the payload, or translate an error into a gRPC status.
// Grounded on i2y-hyperway's rpc.Interceptor shape, generalized from a
// single concrete interface method to a function type so built-ins and
// embedder-authored interceptors compose identically.
type Interceptor func(ctx *Context, payload any, info *MethodDescriptor, next Handler) (any, error)

// Chain composes interceptors into a single Handler wrapping final,
// in registration order (the first interceptor registered is outermost),
// matching i2y-hyperway's ChainInterceptors.
func Chain(interceptors []Interceptor, info *MethodDescriptor, final Handler) Handler {
	h := final
	for i := len(interceptors) - 1; i >= 0; i-- {
		ic := interceptors[i]
		next := h
		h = func(ctx *Context, payload any) (any, error) {
			return ic(ctx, payload, info, next)
		}
	}
	return h
}

// LoggingInterceptor logs the start/end of every RPC through logger.
func LoggingInterceptor(logger *zap.Logger) Interceptor {
	return func(ctx *Context, payload any, info *MethodDescriptor, next Handler) (any, error) {
		start := time.Now()
		logger.Debug("rpc started", zap.String("method", ctx.MethodPath), zap.String("request_id", ctx.RequestID))

		resp, err := next(ctx, payload)

		dur := time.Since(start)
		if err != nil {
			logger.Info("rpc failed",
				zap.String("method", ctx.MethodPath),
				zap.String("request_id", ctx.RequestID),
				zap.Duration("duration", dur),
				zap.Error(err))
		} else {
			logger.Info("rpc completed",
				zap.String("method", ctx.MethodPath),
				zap.String("request_id", ctx.RequestID),
				zap.Duration("duration", dur))
		}
		return resp, err
	}
}

// MetricsHooks is the on-request/on-response callback pair spec.md §4.F
// names for the built-in metrics interceptor.
type MetricsHooks struct {
	OnRequest  func(info *MethodDescriptor)
	OnResponse func(info *MethodDescriptor, dur time.Duration, err error)
}

// MetricsInterceptor invokes hooks around the call without interpreting
// the result itself, leaving the actual metrics backend to the embedder.
func MetricsInterceptor(hooks MetricsHooks) Interceptor {
	return func(ctx *Context, payload any, info *MethodDescriptor, next Handler) (any, error) {
		if hooks.OnRequest != nil {
			hooks.OnRequest(info)
		}
		start := time.Now()
		resp, err := next(ctx, payload)
		if hooks.OnResponse != nil {
			hooks.OnResponse(info, time.Since(start), err)
		}
		return resp, err
	}
}

// TimeoutInterceptor enforces ctx's deadline (already armed by NewContext
// from grpc-timeout) by racing the handler against ctx.Done and mapping
// an expiry to DEADLINE_EXCEEDED (spec.md §5 "Timeouts").
func TimeoutInterceptor() Interceptor {
	return func(ctx *Context, payload any, info *MethodDescriptor, next Handler) (any, error) {
		type result struct {
			resp any
			err  error
		}
		done := make(chan result, 1)
		go func() {
			resp, err := next(ctx, payload)
			done <- result{resp, err}
		}()

		select {
		case r := <-done:
			return r.resp, r.err
		case <-ctx.Done():
			ctx.Cancel()
			return nil, status.New(codes.DeadlineExceeded, "deadline exceeded")
		}
	}
}

// RecoveryInterceptor converts a handler panic into an INTERNAL status
// instead of crashing the connection driver (spec.md §7 "Unexpected").
func RecoveryInterceptor() Interceptor {
	return func(ctx *Context, payload any, info *MethodDescriptor, next Handler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = status.Newf(codes.Internal, "panic recovered: %v", r)
			}
		}()
		return next(ctx, payload)
	}
}
