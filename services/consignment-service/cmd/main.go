// cmd/main.go in consignment-service
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/tradeguard/platform/services/authentication-service/authapi"
	"github.com/tradeguard/platform/services/consignment-service/config"
	httpHandler "github.com/tradeguard/platform/services/consignment-service/handler/http"
	"github.com/tradeguard/platform/services/consignment-service/service"
	"github.com/tradeguard/platform/services/consignment-service/store"
	"github.com/tradeguard/platform/shared/kafka"
	"github.com/tradeguard/platform/shared/logging"
	"github.com/tradeguard/platform/shared/metrics"
	"github.com/tradeguard/platform/shared/middleware"
)

const serviceName = "consignment-service"

func main() {
	logger := logging.New(logging.DefaultConfig(serviceName))
	logger.SetDefault()

	if err := run(logger); err != nil {
		logger.WithError(err).Error("Service stopped with error")
		os.Exit(1)
	}
	logger.Info("Service stopped")
}

// backend is the store the process runs on plus the handle the user
// store shares. db is nil for the memory backend.
type backend struct {
	consignments store.ConsignmentStore
	db           *sql.DB
	ping         func(context.Context) error
	close        func() error
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.STORE {
	case config.StoreMemory:
		return &backend{
			consignments: store.NewMemoryStore(),
			ping:         func(context.Context) error { return nil },
			close:        func() error { return nil },
		}, nil
	case config.StoreSQLite:
		s, err := store.NewSQLiteStore(ctx, cfg.SQLITE_PATH)
		if err != nil {
			return nil, err
		}
		return &backend{consignments: s, db: s.DB(), ping: s.Ping, close: s.Close}, nil
	default:
		s, err := store.NewPostgresStore(ctx, cfg.GetDBURL())
		if err != nil {
			return nil, err
		}
		return &backend{consignments: s, db: s.DB(), ping: s.Ping, close: s.Close}, nil
	}
}

func run(logger *logging.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(metrics.DefaultConfig(serviceName))

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.STORE, err)
	}
	defer be.close()
	logger.Info("Store ready", "backend", cfg.STORE)

	auth, err := authapi.New(ctx, authapi.Options{
		Backend:  authapi.Backend(cfg.STORE),
		DB:       be.db,
		Secret:   []byte(cfg.JWT_SECRET),
		TokenTTL: cfg.TOKEN_TTL,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	var producer kafka.Publisher = kafka.NopPublisher{Logger: logger}
	if cfg.KafkaEnabled() {
		kp := kafka.NewKafkaProducer(cfg.KAFKA_BROKER, cfg.KAFKA_TOPIC, logger).WithMetrics(m)
		producer = kafka.NewBreakerPublisher(kp, kafka.DefaultBreakerConfig("kafka-"+cfg.KAFKA_TOPIC), logger, m)
		logger.Info("Kafka publishing enabled", "broker", cfg.KAFKA_BROKER, "topic", cfg.KAFKA_TOPIC)
	}
	defer producer.Close()

	opts := []service.Option{service.WithMetrics(m)}
	if cfg.TemporalEnabled() {
		tc, err := client.Dial(client.Options{
			HostPort: cfg.TEMPORAL_HOST_PORT,
			Logger:   temporallog.NewStructuredLogger(logger.WithComponent("temporal").Logger),
		})
		if err != nil {
			return fmt.Errorf("dial temporal: %w", err)
		}
		defer tc.Close()
		opts = append(opts, service.WithWorkflows(tc))
		logger.Info("Compliance workflows enabled", "temporal", cfg.TEMPORAL_HOST_PORT)
	}

	svc, err := service.NewConsignmentService(be.consignments, producer, logger, opts...)
	if err != nil {
		return err
	}

	if err := httpHandler.RegisterValidators(); err != nil {
		return err
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.MaxMultipartMemory = httpHandler.MaxInvoiceBytes
	mwConfig := middleware.DefaultConfig(serviceName, logger)
	mwConfig.Metrics = m
	middleware.Setup(router, mwConfig)

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return be.ping(pingCtx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	auth.RegisterRoutes(router.Group("/users"))
	httpHandler.NewConsignmentHandler(svc, logger).RegisterRoutes(router.Group("/consignment"), auth.RequireToken())

	srv := &http.Server{
		Addr:         cfg.HTTP_ADDR,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// gRPC carries only the standard health service for orchestrators.
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.GRPC_ADDR)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPC_ADDR, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server started", "addr", cfg.HTTP_ADDR)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("gRPC health server started", "addr", cfg.GRPC_ADDR)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down servers...")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		grpcServer.GracefulStop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Server forced to shutdown")
		}
		return nil
	})

	return g.Wait()
}
