package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
	"github.com/vladislavdragonenkov/orderflow/internal/service/customer"
	"github.com/vladislavdragonenkov/orderflow/internal/service/payment"
	"github.com/vladislavdragonenkov/orderflow/internal/storage/memory"
)

// Dependencies — набор in-memory зависимостей для локального запуска и тестов.
type Dependencies struct {
	Repo            domain.OrderRepository
	Products        domain.ProductRepository
	OutboxRepo      domain.OutboxRepository
	TimelineRepo    domain.TimelineRepository
	IdempotencyRepo domain.IdempotencyRepository
	CustomerSvc     domain.CustomerClient
	PaymentSvc      domain.PaymentClient
	Logger          *log.Entry
}

// NewDependencies создаёт in-memory репозитории и mock-клиенты внешних сервисов.
func NewDependencies(logger *log.Entry) *Dependencies {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	return &Dependencies{
		Repo:            memory.NewOrderRepository(),
		Products:        memory.NewProductRepository(),
		OutboxRepo:      memory.NewOutboxRepository(),
		TimelineRepo:    memory.NewTimelineRepository(),
		IdempotencyRepo: memory.NewIdempotencyRepository(),
		CustomerSvc:     customer.NewMockClient(),
		PaymentSvc:      payment.NewMockClient(),
		Logger:          logger,
	}
}
