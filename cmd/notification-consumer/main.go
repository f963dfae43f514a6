package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orderflow/internal/service/notification"
)

const defaultGroupID = "orderflow-notifications"

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	if brokers == "" {
		log.Fatal("KAFKA_BROKERS is required")
	}

	groupID := strings.TrimSpace(os.Getenv("KAFKA_GROUP_ID"))
	if groupID == "" {
		groupID = defaultGroupID
	}

	logger := log.WithField("component", "notification-consumer")
	svc := notification.NewService(nil, logger)

	consumer, err := kafka.NewConsumer(
		strings.Split(brokers, ","),
		groupID,
		[]string{kafka.TopicOrderConfirmations},
		svc.Handle,
	)
	if err != nil {
		logger.WithError(err).Fatal("failed to create kafka consumer")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil {
		logger.WithError(err).Fatal("failed to start kafka consumer")
	}

	<-ctx.Done()
	logger.Info("получен сигнал остановки")

	if err := consumer.Stop(); err != nil {
		logger.WithError(err).Error("failed to stop kafka consumer")
	}

	logger.Info("notification-consumer остановлен")
}
