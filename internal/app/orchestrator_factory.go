package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
	"github.com/vladislavdragonenkov/orderflow/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orderflow/internal/service/reservation"
	"github.com/vladislavdragonenkov/orderflow/internal/service/saga"
)

// createOrchestrator собирает saga orchestrator. Если Kafka producer задан,
// подтверждения уходят в notification-топик; иначе используется publisher,
// который только логирует событие.
func createOrchestrator(
	deps runtimeDependencies,
	engine reservation.Engine,
	customers domain.CustomerClient,
	payments domain.PaymentClient,
	kafkaProducer *kafka.Producer,
	logger *log.Entry,
) saga.Orchestrator {
	var publisher domain.ConfirmationPublisher
	if kafkaProducer != nil {
		publisher = kafka.NewConfirmationPublisher(kafkaProducer, kafka.TopicOrderConfirmations)
	} else {
		publisher = &logConfirmationPublisher{logger: logger.WithField("publisher", "log")}
	}

	return saga.NewOrchestrator(
		deps.repo,
		deps.outboxRepo,
		deps.timelineRepo,
		engine,
		customers,
		payments,
		publisher,
		logger,
	)
}

// logConfirmationPublisher пишет подтверждение в лог вместо внешнего канала.
// Используется при запуске без Kafka.
type logConfirmationPublisher struct {
	logger *log.Entry
}

func (p *logConfirmationPublisher) Publish(confirmation domain.OrderConfirmation) error {
	p.logger.WithFields(log.Fields{
		"order_reference": confirmation.OrderReference,
		"total_amount":    confirmation.TotalAmount.String(),
	}).Info("order confirmation")
	return nil
}

var _ domain.ConfirmationPublisher = (*logConfirmationPublisher)(nil)
