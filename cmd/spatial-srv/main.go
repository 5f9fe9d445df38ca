package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/go-sod/spatial/internal/buildinfo"
	spatial "github.com/go-sod/spatial/internal/config"
	"github.com/go-sod/spatial/internal/logging"
	"github.com/go-sod/spatial/internal/metrics"
	"github.com/go-sod/spatial/internal/query"
	"github.com/go-sod/spatial/internal/server"
	"github.com/go-sod/spatial/internal/setup"
	"github.com/go-sod/spatial/internal/shutdown"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Banner())

	ctx, done := shutdown.New()
	ctx = logging.WithLogger(ctx, logging.NewLoggerFromEnv())
	logger := logging.FromContext(ctx)
	logger.Infow("starting", "build", buildinfo.Current())

	err := run(ctx)
	done()
	if err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	config := spatial.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}

	registry, err := env.ProvideRegistry()()
	if err != nil {
		return fmt.Errorf("registry provider function error: %w", err)
	}

	if err := metrics.Register(); err != nil {
		return fmt.Errorf("metrics.Register: %w", err)
	}
	exporter, err := metrics.NewExporter(env.MetricsNamespace())
	if err != nil {
		return fmt.Errorf("metrics.NewExporter: %w", err)
	}

	queryHandler, err := query.NewHandler(config.QueryConfig(), registry)
	if err != nil {
		return fmt.Errorf("query.NewHandler: %w", err)
	}

	srvCfg := config.ServerConfig()
	srv, err := server.New(srvCfg.Addr,
		server.WithMaxConns(srvCfg.MaxConns),
		server.WithShutdownTimeout(srvCfg.ShutdownTimeout),
	)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	grpcSrv, err := server.New(srvCfg.GRPCAddr, server.WithMaxConns(srvCfg.MaxConns))
	if err != nil {
		return fmt.Errorf("server.New grpc: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(query.Prefix, queryHandler)
	mux.Handle(query.Prefix+"/", queryHandler)
	mux.Handle("/metrics", exporter)
	mux.Handle("/health", server.HandleHealth(ctx))

	grpcHealth, health := server.NewHealthGRPC()
	health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	defer health.Shutdown()
	err = server.Run(ctx,
		func(ctx context.Context) error {
			return srv.ServeHTTPHandler(ctx, mux)
		},
		func(ctx context.Context) error {
			return grpcSrv.ServeGRPC(ctx, grpcHealth)
		},
	)
	if err != nil {
		logger.Errorf("server stopped: %v", err)
	}
	return err
}
