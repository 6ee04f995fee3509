package app

import (
	"context"
	"errors"
	"net"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	healthcheck "github.com/vladislavdragonenkov/checkout/internal/health"
)

// ServiceName задаёт имя сервиса в grpc.health.v1.
const ServiceName = "checkout.Register"

const healthSyncInterval = 5 * time.Second

// grpcHealth отдаёт по gRPC готовность из HTTP probes.
type grpcHealth struct {
	server *grpc.Server
	health *grpchealth.Server
	probes *healthcheck.Handler
	logger *log.Entry
}

func newGRPCHealth(probes *healthcheck.Handler, logger *log.Entry) *grpcHealth {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)
	healthServer := grpchealth.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)
	grpcMetrics.InitializeMetrics(server)

	g := &grpcHealth{server: server, health: healthServer, probes: probes, logger: logger}
	g.sync()
	return g
}

// sync переносит состояние HTTP probes в gRPC health.
func (g *grpcHealth) sync() {
	status := healthpb.HealthCheckResponse_SERVING
	if !g.probes.Ready() {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(ServiceName, status)
}

// serve обслуживает lis до отмены ctx.
func (g *grpcHealth) serve(ctx context.Context, lis net.Listener) error {
	go func() {
		ticker := time.NewTicker(healthSyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				g.sync()
			}
		}
	}()

	g.logger.Infof("gRPC health слушает %s", lis.Addr())
	err := g.server.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// stop останавливает сервер, принудительно по истечении timeout.
func (g *grpcHealth) stop(timeout time.Duration) {
	g.health.Shutdown()
	stopped := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		g.logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		g.server.Stop()
	}
}
