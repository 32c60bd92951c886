package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fraudscope/fraudscope/internal/application/usecase"
	"github.com/fraudscope/fraudscope/internal/application/validation"
	"github.com/fraudscope/fraudscope/internal/domain/port"
	"github.com/fraudscope/fraudscope/internal/domain/service"
	"github.com/fraudscope/fraudscope/internal/infrastructure/config"
	"github.com/fraudscope/fraudscope/internal/infrastructure/messaging"
	"github.com/fraudscope/fraudscope/internal/infrastructure/metrics"
	"github.com/fraudscope/fraudscope/internal/infrastructure/ml/forest"
	grpcpresentation "github.com/fraudscope/fraudscope/internal/presentation/grpc"
	"github.com/fraudscope/fraudscope/internal/presentation/rest"
	"github.com/fraudscope/fraudscope/internal/presentation/stream"
	"github.com/fraudscope/fraudscope/pkg/kafka"
	"github.com/fraudscope/fraudscope/pkg/observability"
)

const serviceName = "fraudscope"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
	})
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting fraudscope",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"environment", cfg.Environment,
	)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("fraudscope stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("fraudscope stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Tracing is a no-op when no OTLP endpoint is configured.
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: serviceName,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    true,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer shutdownTracer(context.Background())
	}

	obs, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: serviceName})
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}
	defer obs.Provider.Shutdown(context.Background())
	recorder := metrics.NewPrometheusRecorder(obs.Registry)

	// Fit the classifier before accepting traffic.
	start := time.Now()
	model, err := forest.Bootstrap(ctx, forest.BootstrapConfig{
		Estimators: cfg.ModelEstimators,
		Seed:       cfg.ModelSeed,
		Samples:    cfg.ModelTrainingSamples,
		Features:   service.FeatureCount,
	})
	if err != nil {
		return fmt.Errorf("bootstrapping model: %w", err)
	}
	logger.Info("model fitted",
		"estimators", model.Estimators(),
		"seed", cfg.ModelSeed,
		"samples", cfg.ModelTrainingSamples,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	kafkaCfg := kafka.Config{
		Brokers:       cfg.KafkaBrokers,
		ConsumerGroup: cfg.KafkaConsumerGroup,
		TLS:           cfg.KafkaTLS,
		SASLEnabled:   cfg.KafkaSASLEnabled(),
		SASLMechanism: cfg.KafkaSASLMechanism,
		SASLUsername:  cfg.KafkaSASLUsername,
		SASLPassword:  cfg.KafkaSASLPassword,
	}

	checks := map[string]rest.ReadinessCheck{
		"model": func(context.Context) error {
			if !model.Fitted() {
				return forest.ErrNotFitted
			}
			return nil
		},
	}

	// Wire the event publisher.
	var publisher port.EventPublisher
	if cfg.KafkaEnabled() {
		producer, err := kafka.NewProducer(kafkaCfg)
		if err != nil {
			return fmt.Errorf("creating kafka producer: %w", err)
		}
		defer producer.Close()
		publisher = messaging.NewKafkaPublisher(producer, cfg.KafkaPredictionsTopic, logger)
		checks["publisher"] = producer.Ping
		logger.Info("publishing predictions to kafka", "topic", cfg.KafkaPredictionsTopic)
	} else {
		publisher = messaging.NewLogPublisher(logger)
		checks["publisher"] = func(context.Context) error { return nil }
		logger.Info("no kafka brokers configured, predictions are logged only")
	}

	// Wire domain services and the use case.
	scorer := service.NewFraudScorer(model, service.NewLockedSource(cfg.JitterSeed))
	scoreTransaction := usecase.NewScoreTransaction(
		scorer,
		service.NewRiskLabeler(),
		publisher,
		recorder,
		logger,
	)
	validator := validation.New()

	// gRPC server.
	grpcHandler := grpcpresentation.NewScoringServiceHandler(scoreTransaction, validator, recorder, logger)
	grpcServer, err := grpcpresentation.NewServer(grpcHandler, grpcpresentation.ServerConfig{
		Address:     cfg.GRPCAddress(),
		TLSCertFile: cfg.GRPCTLSCertFile,
		TLSKeyFile:  cfg.GRPCTLSKeyFile,
		Reflection:  cfg.GRPCReflection,
	}, logger)
	if err != nil {
		return err
	}

	// HTTP server.
	router := rest.NewRouter(rest.RouterConfig{
		Predictions:    rest.NewPredictionHandler(scoreTransaction, validator, recorder, logger),
		Health:         rest.NewHealthHandler(logger, checks),
		Metrics:        obs.Handler,
		Logger:         logger,
		RateLimit:      cfg.RateLimit,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := grpcServer.Start(); err != nil {
			return fmt.Errorf("gRPC server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if cfg.KafkaTransactionsTopic != "" {
		handler := stream.NewTransactionHandler(scoreTransaction, validator, recorder, logger)
		consumer, err := kafka.NewConsumer(kafkaCfg, cfg.KafkaTransactionsTopic, handler.Handle, logger)
		if err != nil {
			return fmt.Errorf("creating kafka consumer: %w", err)
		}
		defer consumer.Close()

		g.Go(func() error {
			if err := consumer.Start(gctx); err != nil {
				return fmt.Errorf("kafka consumer error: %w", err)
			}
			return nil
		})
	}

	logger.Info("fraudscope started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"kafka_enabled", cfg.KafkaEnabled(),
	)

	// Wait for a shutdown signal or the first component failure.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down fraudscope")

		grpcServer.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}
