package kafka

import (
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

// EventType определяет тип события
type EventType string

const (
	// EventTypeOrderConfirmed — заказ успешно оформлен, payload несёт OrderConfirmation.
	EventTypeOrderConfirmed EventType = "order.confirmed"
)

// Topics для Kafka
const (
	// TopicOrderConfirmations — канал уведомлений о подтверждённых заказах.
	TopicOrderConfirmations = "ecommerce.order.confirmations"
)

// ConfirmationEvent — конверт события подтверждения заказа.
// EventID позволяет потребителям дедуплицировать at-least-once доставку.
type ConfirmationEvent struct {
	EventID      string                   `json:"event_id"`
	EventType    EventType                `json:"event_type"`
	Timestamp    time.Time                `json:"timestamp"`
	Confirmation domain.OrderConfirmation `json:"confirmation"`
}

// NewConfirmationEvent создаёт конверт для подтверждения заказа.
func NewConfirmationEvent(confirmation domain.OrderConfirmation) *ConfirmationEvent {
	return &ConfirmationEvent{
		EventID:      uuid.NewString(),
		EventType:    EventTypeOrderConfirmed,
		Timestamp:    time.Now().UTC(),
		Confirmation: confirmation,
	}
}
