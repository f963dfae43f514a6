package app

import (
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/service/reservation"
	"github.com/vladislavdragonenkov/orderflow/internal/storage/memory"
)

func TestCreateOrchestrator_WithoutKafka(t *testing.T) {
	logger := log.WithField("test", "orchestrator")

	deps := runtimeDependencies{
		repo:            memory.NewOrderRepository(),
		products:        memory.NewProductRepository(),
		outboxRepo:      memory.NewOutboxRepository(),
		timelineRepo:    memory.NewTimelineRepository(),
		idempotencyRepo: memory.NewIdempotencyRepository(),
	}
	engine := reservation.NewEngine(deps.products, nil, logger)
	mocks := NewDependencies(logger)

	orch := createOrchestrator(deps, engine, mocks.CustomerSvc, mocks.PaymentSvc, nil, logger)

	if orch == nil {
		t.Fatal("orchestrator should not be nil")
	}
}

func TestLogConfirmationPublisher_Publish(t *testing.T) {
	publisher := &logConfirmationPublisher{logger: log.WithField("test", "log-publisher")}

	if err := publisher.Publish(sampleConfirmation()); err != nil {
		t.Fatalf("log publisher should never fail, got %v", err)
	}
}
