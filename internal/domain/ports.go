package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerClient описывает взаимодействие с внешним customer-сервисом.
type CustomerClient interface {
	// FindCustomerByID возвращает карточку клиента либо ErrCustomerNotFound.
	// Транспортные сбои маппятся в ErrCustomerLookupFailed.
	FindCustomerByID(id string) (Customer, error)
}

// PaymentRequest — запрос на оплату заказа внешнему платёжному сервису.
type PaymentRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	OrderID        int64           `json:"order_id"`
	OrderReference string          `json:"order_reference"`
	Customer       Customer        `json:"customer"`
}

// PaymentClient описывает взаимодействие с платёжным сервисом.
// Подтверждается только синхронный accept/reject; асинхронный расчёт вне контракта.
type PaymentClient interface {
	RequestOrderPayment(req PaymentRequest) error
}

// ConfirmationPublisher публикует подтверждение заказа в notification-канал.
// Доставка at-least-once; подтверждений канал не возвращает.
type ConfirmationPublisher interface {
	Publish(confirmation OrderConfirmation) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// TimelineRepository хранит события жизненного цикла заказа, ключ — reference.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(reference string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// SagaStep задаёт константы шагов оформления заказа для метрик/логов/таймлайна.
type SagaStep string

const (
	SagaStepCustomer SagaStep = "customer"
	SagaStepReserve  SagaStep = "reserve"
	SagaStepPersist  SagaStep = "persist"
	SagaStepPayment  SagaStep = "payment"
	SagaStepPublish  SagaStep = "publish"
)

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	Reference string
	Type      string
	Reason    string
	Occurred  time.Time
}
