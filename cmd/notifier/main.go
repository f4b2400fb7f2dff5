package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	notificationshandler "roombook/internal/notifications/handler"
	"roombook/pkg/config"
	"roombook/pkg/kafka"
	kafkamiddleware "roombook/pkg/kafka/middleware"
	"roombook/pkg/logger"
)

const ServiceName = "roombook-notifier"

// The notifier consumes booking events and turns them into member-facing
// mail. It shares topics and payload shapes with the API server but has no
// HTTP surface of its own.
func main() {
	log := logger.New(logger.Config{
		Level:     os.Getenv(config.EnvLogLevel),
		Format:    logger.JSON,
		AddSource: true,
		Service:   ServiceName,
	})

	kafkaCfg := kafka.LoadConfig()
	confirmationTopic := getTopic(config.EnvConfirmationTopic, config.DefaultConfirmationTopic)
	cancellationTopic := getTopic(config.EnvCancellationTopic, config.DefaultCancellationTopic)

	dlq, err := kafka.NewProducer(kafkaCfg, log, kafkamiddleware.PublishLogging(log))
	if err != nil {
		log.Fatal("Failed to initialize DLQ producer", "error", err)
	}
	defer dlq.Close()

	handler := notificationshandler.NewNotificationHandler(&notificationshandler.LogMailer{Log: log}, log)

	confirmations, err := kafka.NewConsumer(kafkaCfg, confirmationTopic, handler.HandleConfirmation, dlq, log)
	if err != nil {
		log.Fatal("Failed to initialize confirmation consumer", "error", err)
	}
	cancellations, err := kafka.NewConsumer(kafkaCfg, cancellationTopic, handler.HandleCancellation, dlq, log)
	if err != nil {
		log.Fatal("Failed to initialize cancellation consumer", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for _, c := range []*kafka.Consumer{confirmations, cancellations} {
		wg.Add(1)
		go func(c *kafka.Consumer) {
			defer wg.Done()
			if err := c.Run(ctx); err != nil {
				log.Error("Consumer stopped with error", "error", err)
			}
		}(c)
	}

	log.Info("Notifier started",
		"confirmation_topic", confirmationTopic,
		"cancellation_topic", cancellationTopic,
		"group", kafkaCfg.ConsumerGroup,
	)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	log.Info("Shutdown signal received", "signal", sig)

	cancel()
	if err := confirmations.Close(); err != nil {
		log.Error("Failed to close confirmation consumer", "error", err)
	}
	if err := cancellations.Close(); err != nil {
		log.Error("Failed to close cancellation consumer", "error", err)
	}
	wg.Wait()

	log.Info("Notifier stopped gracefully")
}

func getTopic(envKey, fallback string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return fallback
}
