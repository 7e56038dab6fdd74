package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/pauvepe/whispervoice/internal/appinfo"
	"github.com/pauvepe/whispervoice/internal/binding"
	"github.com/pauvepe/whispervoice/internal/config"
	"github.com/pauvepe/whispervoice/internal/engine"
	"github.com/pauvepe/whispervoice/internal/logging"
	"github.com/pauvepe/whispervoice/internal/models"
	"github.com/pauvepe/whispervoice/internal/server"
	"github.com/pauvepe/whispervoice/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Loader{}.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, closer := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer closer.Close()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server terminated with error", "error", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("starting server",
		"version", appinfo.VersionTag(),
		"listen_addr", cfg.ListenAddr,
		"model_variant", cfg.ModelVariant,
		"language", cfg.Language,
		"data_dir", cfg.DataDir,
	)

	recorder := telemetry.NewRecorder(logger)

	manager, err := models.NewManager(cfg.DataDir, logger)
	if err != nil {
		return err
	}

	sel, selErr := engine.New(ctx, cfg, manager, logger)
	if selErr != nil {
		logger.Warn("engine initialised with warnings", "error", selErr)
	}
	logger.Info("resolved model path", "path", sel.ModelPath, "native", sel.Native)

	registry := binding.NewRegistry(sel.Backend, cfg.Params(), logger)
	defer registry.Close()

	srv, err := server.New(cfg, logger, registry, recorder, sel.ModelPath)
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return err
	}
	defer lis.Close()

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthgrpc.RegisterHealthServer(grpcServer, healthServer)

	serviceName := server.ServiceName
	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(serviceName, healthgrpc.HealthCheckResponse_NOT_SERVING)

	server.RegisterTranscriberServer(grpcServer, srv)

	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(serviceName, healthgrpc.HealthCheckResponse_SERVING)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown requested, stopping gRPC server")
		healthServer.SetServingStatus(serviceName, healthgrpc.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
		case <-time.After(shutdownTimeout):
			logger.Warn("graceful stop timed out, forcing stop")
			grpcServer.Stop()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if snapshot := recorder.Snapshot(); snapshot.TotalTranscriptions > 0 || snapshot.ModelsLoaded > 0 {
		logger.Info("telemetry totals",
			"models_loaded", snapshot.ModelsLoaded,
			"load_failures", snapshot.LoadFailures,
			"models_freed", snapshot.ModelsFreed,
			"total_transcriptions", snapshot.TotalTranscriptions,
			"total_succeeded", snapshot.TotalSucceeded,
			"total_no_context", snapshot.TotalNoContext,
			"total_engine_failures", snapshot.TotalEngineFailures,
			"total_samples", snapshot.TotalSamples,
			"total_cache_hits", snapshot.TotalCacheHits,
			"inference_time", snapshot.InferenceTime,
		)
	}

	logger.Info("server stopped")
	return nil
}
