// Command grpchostd is a minimal example entrypoint wiring a single
// unary Greeter service into a grpchost.Server; it exists to demonstrate
// embedding, not as a general-purpose CLI (spec.md's CLI surface is a
// Non-goal).
package main

import (
	"flag"
	"log"

	"github.com/grpchost/grpchost"
	"github.com/grpchost/grpchost/codec"
	"go.uber.org/zap"
)

var (
	host = flag.String("host", "0.0.0.0", "listen host")
	port = flag.Int("port", 50051, "listen port")
)

type greetRequest struct {
	Name string `json:"name"`
}

type greetResponse struct {
	Message string `json:"message"`
}

func main() {
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("grpchostd: building logger: %v", err)
	}
	defer logger.Sync()

	opts := grpchost.DefaultOptions()
	opts.EnableHealthCheck = true
	opts.EnableReflection = true
	opts.DebugMode = true

	srv, err := grpchost.NewServer(opts, logger)
	if err != nil {
		logger.Fatal("invalid server options", zap.Error(err))
	}

	greeter := &grpchost.ServiceDescriptor{Name: "grpchost.examples.Greeter"}
	greeter.AddMethod(&grpchost.MethodDescriptor{
		Name:          "SayHello",
		Kind:          grpchost.Unary,
		RequestCodec:  codec.JSON,
		ResponseCodec: codec.JSON,
		NewRequest:    func() any { return &greetRequest{} },
		Unary: func(ctx *grpchost.Context, req any) (any, error) {
			r := req.(*greetRequest)
			return &greetResponse{Message: "Hello, " + r.Name}, nil
		},
	})

	if err := srv.Register(greeter); err != nil {
		logger.Fatal("registering Greeter", zap.Error(err))
	}

	if err := srv.AddInterceptor(grpchost.RecoveryInterceptor()); err != nil {
		logger.Fatal("adding recovery interceptor", zap.Error(err))
	}
	if err := srv.AddInterceptor(grpchost.LoggingInterceptor(logger)); err != nil {
		logger.Fatal("adding logging interceptor", zap.Error(err))
	}

	srv.SetHealth("", grpchost.HealthServing)
	srv.SetHealth(greeter.Name, grpchost.HealthServing)

	logger.Info("starting grpchostd", zap.String("host", *host), zap.Int("port", *port))
	if err := srv.Start(*host, *port); err != nil {
		logger.Fatal("server failed to start", zap.Error(err))
	}

	select {}
}
