package rpc

import (
	"context"
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_zap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpc_ctxtags "github.com/grpc-ecosystem/go-grpc-middleware/tags"
	"github.com/mohitkumar/actionbus/logger"
	"github.com/mohitkumar/actionbus/monitor"
	"go.opencensus.io/plugin/ocgrpc"
	"go.opencensus.io/stats/view"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
)

type ActionDispatcher interface {
	Dispatch(ctx context.Context, name string, params map[string]string, timeout time.Duration) (uint64, error)
	Cancel(ctx context.Context, name string) error
}

type ActionMonitor interface {
	Get(name string) (monitor.ActionStatus, bool)
}

type GrpcConfig struct {
	Dispatcher ActionDispatcher
	Monitor    ActionMonitor
}

type grpcServer struct {
	*GrpcConfig
}

func NewGrpcServer(config *GrpcConfig, opts ...grpc.ServerOption) (*grpc.Server, error) {
	log := logger.L().Named("grpc")
	zapOpts := []grpc_zap.Option{
		grpc_zap.WithDurationField(
			func(duration time.Duration) zapcore.Field {
				return zap.Int64(
					"grpc.time_ns",
					duration.Nanoseconds(),
				)
			},
		),
	}
	if err := view.Register(ocgrpc.DefaultServerViews...); err != nil {
		return nil, err
	}
	grpcOpts := []grpc.ServerOption{
		grpc.StreamInterceptor(
			grpc_middleware.ChainStreamServer(
				grpc_ctxtags.StreamServerInterceptor(),
				grpc_zap.StreamServerInterceptor(log, zapOpts...),
			)),
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
			grpc_ctxtags.UnaryServerInterceptor(),
			grpc_zap.UnaryServerInterceptor(log, zapOpts...),
		)),
		grpc.StatsHandler(&ocgrpc.ServerHandler{}),
	}
	grpcOpts = append(grpcOpts, opts...)

	gsrv := grpc.NewServer(grpcOpts...)
	RegisterBridgeServer(gsrv, &grpcServer{GrpcConfig: config})
	return gsrv, nil
}
