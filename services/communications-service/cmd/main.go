//services/communications-service/cmd/main.go

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tradeguard/platform/services/communications-service/internal/bridge"
	"github.com/tradeguard/platform/shared/config"
	pkgkafka "github.com/tradeguard/platform/shared/kafka"
	"github.com/tradeguard/platform/shared/logging"
	"github.com/tradeguard/platform/shared/metrics"
	pkgrabbit "github.com/tradeguard/platform/shared/rabbitmq"
)

const serviceName = "communications-service"

func main() {
	logger := logging.New(logging.DefaultConfig(serviceName))
	logger.SetDefault()
	m := metrics.New(metrics.DefaultConfig(serviceName))

	// Load common configuration
	cfg := config.LoadCommonConfig()

	//connect to RabbitMQ
	logger.Info("Connecting to RabbitMQ", "host", cfg.RABBITMQ_HOST)
	rabbitClient, err := pkgrabbit.NewClient(cfg.GetRabbitMQURL(), logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to RabbitMQ")
		os.Exit(1)
	}
	//we do not defer client.Close() immediately
	//we want to control exactly when it closes during
	//shutdown sequence below

	for _, queue := range []string{bridge.AlertQueue, bridge.NoticeQueue} {
		if err := rabbitClient.CreateQueue(queue); err != nil {
			logger.WithError(err).Error("Failed to create queue", "queue", queue)
			os.Exit(1)
		}
	}

	// Tune in to the consignment topic.
	var kafkaConsumer *pkgkafka.Consumer
	if cfg.KafkaEnabled() {
		logger.Info("Connecting to Kafka", "broker", cfg.KAFKA_BROKER, "topic", cfg.KAFKA_TOPIC)
		kafkaConsumer = pkgkafka.NewConsumer(
			[]string{cfg.KAFKA_BROKER},
			cfg.KAFKA_TOPIC,
			"communications-group",
			logger,
		).WithMetrics(m)
	} else {
		logger.Warn("Kafka config missing, only draining existing jobs")
	}

	//ctx is a signal to tell workers to stop
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bridge.New(rabbitClient, logger, m)
	var wg sync.WaitGroup

	// one worker per queue
	for _, queue := range []string{bridge.AlertQueue, bridge.NoticeQueue} {
		wg.Add(1)
		go func(queue string) {
			defer wg.Done()
			if err := rabbitClient.Work(ctx, queue, b.Worker(queue)); err != nil {
				logger.WithError(err).Error("Worker stopped", "queue", queue)
			}
		}(queue)
	}

	// the bridge dispatcher
	if kafkaConsumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kafkaConsumer.Start(ctx, b.Handle)
		}()
	}

	metricsSrv := &http.Server{
		Addr:              config.GetEnv("METRICS_ADDR", ":9091"),
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Metrics server error")
		}
	}()
	defer metricsSrv.Close()

	logger.Info("Service running. Press Ctrl + c to stop")
	<-ctx.Done()
	logger.Info("Initiating shutdown...")

	//wait for workers to finish processing current message
	wg.Wait()
	//now all workers quit. we can close the connections
	if err := rabbitClient.Close(); err != nil {
		logger.WithError(err).Error("Failed to close RabbitMQ connection")
	}
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Close(); err != nil {
			logger.WithError(err).Error("Failed to close Kafka consumer")
		}
	}
	logger.Info("Service shutdown complete. Safe to exit")
}
