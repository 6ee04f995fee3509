// Package app собирает сервер регистратора: HTTP API с UI, метрики,
// gRPC health и публикацию событий из outbox.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/httpapi"
	"github.com/vladislavdragonenkov/checkout/internal/service/outbox"
)

// Run слушает cfg.HTTPAddr() и работает до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	lis, err := net.Listen("tcp", cfg.HTTPAddr())
	if err != nil {
		return err
	}
	return Serve(ctx, cfg, lis)
}

// Serve запускает все компоненты сервера поверх готового listener.
func Serve(ctx context.Context, cfg Config, lis net.Listener) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(cfg, logger)
	if err != nil {
		_ = lis.Close()
		return err
	}

	publisher, err := initEventPublisher(cfg, logger)
	if err != nil {
		_ = lis.Close()
		return err
	}
	defer closePublisher(publisher, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if publisher != nil {
		worker := outbox.NewWorker(deps.Outbox, publisher,
			outbox.WithLogger(logger.WithField("layer", "outbox")),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()

		if pruner, ok := deps.Outbox.(domain.OutboxPruner); ok {
			cleanup := outbox.NewCleanupWorker(pruner,
				outbox.WithCleanupLogger(logger.WithField("layer", "outbox-cleanup")),
				outbox.WithRetention(cfg.OutboxRetention),
			)
			wg.Add(1)
			go func() {
				defer wg.Done()
				cleanup.Run(ctx)
			}()
		}
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger)

	var grpcSrv *grpcHealth
	errCh := make(chan error, 2)
	if cfg.GRPCAddr != "" {
		grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			_ = lis.Close()
			cancel()
			wg.Wait()
			shutdownHTTP(metricsSrv, logger)
			return err
		}
		grpcSrv = newGRPCHealth(deps.Health, logger.WithField("layer", "grpc"))
		go func() {
			errCh <- grpcSrv.serve(ctx, grpcLis)
		}()
	}

	srv := &http.Server{
		Handler: httpapi.NewRouter(httpapi.RouterOptions{
			Service: deps.Service,
			Health:  deps.Health,
			Metrics: deps.Metrics,
			Static:  deps.Static,
			Logger:  logger.WithField("layer", "http"),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Infof("Server is running on port %s", portOf(lis.Addr()))
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем сервер")
		runErr = ctx.Err()
	case runErr = <-errCh:
		logger.WithError(runErr).Error("сервер завершился с ошибкой")
	}

	cancel()
	shutdownHTTPTimeout(srv, cfg.ShutdownTimeout, logger)
	if grpcSrv != nil {
		grpcSrv.stop(cfg.ShutdownTimeout)
	}
	shutdownHTTP(metricsSrv, logger)
	wg.Wait()

	return runErr
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
// Пустой addr отключает сервер.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	shutdownHTTPTimeout(srv, 5*time.Second, logger)
}

func shutdownHTTPTimeout(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}

func portOf(addr net.Addr) string {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return strconv.Itoa(tcp.Port)
	}
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return port
}
