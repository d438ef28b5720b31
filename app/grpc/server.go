package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/v1"
)

// NewHealthServer reports SERVING for the process and for every configured
// gateway alias, so probes can target a single provider.
func NewHealthServer(providers []string) *health.Server {
	srv := health.NewServer()
	srv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, alias := range providers {
		srv.SetServingStatus(alias, healthpb.HealthCheckResponse_SERVING)
	}
	return srv
}

func NewServer(healthSrv *health.Server) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(),
			RequestIDInterceptor(healthpb.Health_Check_FullMethodName),
			LoggingInterceptor(),
		),
	)
	healthpb.RegisterHealthServer(srv, healthSrv)
	return srv
}
