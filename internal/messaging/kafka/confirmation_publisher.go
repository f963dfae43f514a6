package kafka

import (
	"fmt"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

// ConfirmationTopicPublisher публикует подтверждения заказов в Kafka topic.
type ConfirmationTopicPublisher struct {
	producer *Producer
	topic    string
}

// NewConfirmationPublisher создаёт Kafka-паблишер для notification-канала.
func NewConfirmationPublisher(producer *Producer, topic string) domain.ConfirmationPublisher {
	if topic == "" {
		topic = TopicOrderConfirmations
	}
	return &ConfirmationTopicPublisher{
		producer: producer,
		topic:    topic,
	}
}

// Publish отправляет подтверждение в канал; ключ — reference заказа,
// чтобы события одного заказа попадали в одну партицию.
func (p *ConfirmationTopicPublisher) Publish(confirmation domain.OrderConfirmation) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka confirmation publisher is not initialized")
	}

	event := NewConfirmationEvent(confirmation)
	if err := p.producer.PublishEvent(p.topic, confirmation.OrderReference, event); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEventPublishFailed, err)
	}
	return nil
}

var _ domain.ConfirmationPublisher = (*ConfirmationTopicPublisher)(nil)
