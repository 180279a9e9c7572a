// workflow-orchestrator/cmd/main.go

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/tradeguard/platform/services/consignment-service/compliance"
	"github.com/tradeguard/platform/services/consignment-service/store"
	"github.com/tradeguard/platform/services/workflow-orchestrator/internal/activities"
	complianceworkflow "github.com/tradeguard/platform/services/workflow-orchestrator/internal/workflow"
	"github.com/tradeguard/platform/shared/config"
	"github.com/tradeguard/platform/shared/contracts"
	"github.com/tradeguard/platform/shared/kafka"
	"github.com/tradeguard/platform/shared/logging"
	"github.com/tradeguard/platform/shared/metrics"
)

const serviceName = "workflow-orchestrator"

func main() {
	logger := logging.New(logging.DefaultConfig(serviceName))
	logger.SetDefault()

	if err := run(logger); err != nil {
		logger.WithError(err).Error("Worker stopped with error")
		os.Exit(1)
	}
}

func run(logger *logging.Logger) error {
	// =========================================================================
	// 1. LOAD CONFIG
	// =========================================================================
	cfg := config.LoadCommonConfig()
	temporalHost := config.GetEnv("TEMPORAL_HOST_PORT", "temporal:7233")
	ctx := context.Background()
	m := metrics.New(metrics.DefaultConfig(serviceName))

	// =========================================================================
	// 2. SETUP DEPENDENCIES (DB & KAFKA)
	// =========================================================================
	// The worker must see the API's consignments, so it opens the same
	// store. The memory store only makes sense in tests.
	var consignments store.ConsignmentStore
	switch config.GetEnv("STORE", "postgres") {
	case "sqlite":
		s, err := store.NewSQLiteStore(ctx, config.GetEnv("SQLITE_PATH", "tradeguard.db"))
		if err != nil {
			return fmt.Errorf("worker failed to open sqlite: %w", err)
		}
		defer s.Close()
		consignments = s
	default:
		s, err := store.NewPostgresStore(ctx, cfg.GetDBURL())
		if err != nil {
			return fmt.Errorf("worker failed to connect to DB: %w", err)
		}
		defer s.Close()
		consignments = s
	}

	var producer kafka.Publisher = kafka.NopPublisher{Logger: logger}
	if cfg.KafkaEnabled() {
		kp := kafka.NewKafkaProducer(cfg.KAFKA_BROKER, cfg.KAFKA_TOPIC, logger).WithMetrics(m)
		producer = kafka.NewBreakerPublisher(kp, kafka.DefaultBreakerConfig("kafka-"+cfg.KAFKA_TOPIC), logger, m)
		logger.Info("Worker connected to Kafka", "broker", cfg.KAFKA_BROKER)
	} else {
		logger.Warn("Kafka config missing, worker will not publish events")
	}
	defer producer.Close()

	// =========================================================================
	// 3. SETUP TEMPORAL CLIENT
	// =========================================================================
	c, err := client.Dial(client.Options{
		HostPort: temporalHost,
		Logger:   temporallog.NewStructuredLogger(logger.WithComponent("temporal").Logger),
	})
	if err != nil {
		return fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer c.Close()
	logger.Info("Worker connected to Temporal", "hostPort", temporalHost)

	// =========================================================================
	// 4. REGISTER ACTIVITIES & WORKFLOWS
	// =========================================================================
	activityHost := &activities.ComplianceActivities{
		Store:    consignments,
		Producer: producer,
		Scorer:   compliance.NewScorer(),
		Metrics:  m,
	}

	w := worker.New(c, contracts.ComplianceCheckTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(complianceworkflow.ComplianceCheckWorkflow, workflow.RegisterOptions{
		Name: contracts.ComplianceCheckWorkflowName,
	})
	w.RegisterActivity(activityHost)

	metricsSrv := &http.Server{
		Addr:              config.GetEnv("METRICS_ADDR", ":9090"),
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Metrics server error")
		}
	}()
	defer metricsSrv.Close()

	// =========================================================================
	// 5. START WORKER
	// =========================================================================
	logger.Info("Worker started", "taskQueue", contracts.ComplianceCheckTaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		return fmt.Errorf("unable to start worker: %w", err)
	}
	return nil
}
