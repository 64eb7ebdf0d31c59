package grpchost

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/grpchost/grpchost/codes"
	"github.com/grpchost/grpchost/metadata"
	"github.com/grpchost/grpchost/status"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestContext() *Context {
	return NewContext(context.Background(), "/pkg.Svc/Method", "127.0.0.1:1234", metadata.MD{})
}

func markerInterceptor(tag string, order *[]string) Interceptor {
	return func(ctx *Context, payload any, info *MethodDescriptor, next Handler) (any, error) {
		*order = append(*order, tag+":before")
		resp, err := next(ctx, payload)
		*order = append(*order, tag+":after")
		return resp, err
	}
}

func TestChainPreservesRegistrationOrder(t *testing.T) {
	var order []string
	chain := Chain(
		[]Interceptor{markerInterceptor("outer", &order), markerInterceptor("inner", &order)},
		&MethodDescriptor{},
		func(ctx *Context, payload any) (any, error) { order = append(order, "handler"); return nil, nil },
	)
	_, err := chain(newTestContext(), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"outer:before", "inner:before", "handler", "inner:after", "outer:after"}, order)
}

func TestRecoveryInterceptorConvertsPanic(t *testing.T) {
	h := Chain([]Interceptor{RecoveryInterceptor()}, &MethodDescriptor{}, func(ctx *Context, payload any) (any, error) {
		panic("boom")
	})
	_, err := h(newTestContext(), nil)
	require.Error(t, err)
	var st *status.Status
	require.True(t, errors.As(err, &st))
	require.Equal(t, codes.Internal, st.Code)
}

func TestTimeoutInterceptorPassesThroughOnSuccess(t *testing.T) {
	h := Chain([]Interceptor{TimeoutInterceptor()}, &MethodDescriptor{}, func(ctx *Context, payload any) (any, error) {
		return "ok", nil
	})
	resp, err := h(newTestContext(), nil)
	require.NoError(t, err)
	require.Equal(t, "ok", resp)
}

func TestTimeoutInterceptorReportsDeadlineExceeded(t *testing.T) {
	incoming := metadata.MD{}
	incoming.Append("grpc-timeout", "1m")
	ctx := NewContext(context.Background(), "/pkg.Svc/Method", "127.0.0.1:1234", incoming)

	h := Chain([]Interceptor{TimeoutInterceptor()}, &MethodDescriptor{}, func(ctx *Context, payload any) (any, error) {
		time.Sleep(50 * time.Millisecond)
		return "too slow", nil
	})
	_, err := h(ctx, nil)
	require.Error(t, err)
	var st *status.Status
	require.True(t, errors.As(err, &st))
	require.Equal(t, codes.DeadlineExceeded, st.Code)
}

func TestMetricsInterceptorInvokesHooks(t *testing.T) {
	var requested, responded bool
	hooks := MetricsHooks{
		OnRequest:  func(info *MethodDescriptor) { requested = true },
		OnResponse: func(info *MethodDescriptor, dur time.Duration, err error) { responded = true },
	}
	h := Chain([]Interceptor{MetricsInterceptor(hooks)}, &MethodDescriptor{}, func(ctx *Context, payload any) (any, error) {
		return nil, nil
	})
	_, err := h(newTestContext(), nil)
	require.NoError(t, err)
	require.True(t, requested)
	require.True(t, responded)
}

func TestLoggingInterceptorLogsCompletion(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	h := Chain([]Interceptor{LoggingInterceptor(logger)}, &MethodDescriptor{}, func(ctx *Context, payload any) (any, error) {
		return "ok", nil
	})
	_, err := h(newTestContext(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	require.Equal(t, "rpc completed", logs.All()[0].Message)
}
