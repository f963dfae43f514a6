package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/messaging/kafka"
)

var notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "orderflow_notifications_total",
	Help: "Обработанные события подтверждения заказов.",
}, []string{"result"})

// Sender доставляет уведомление клиенту.
type Sender interface {
	Send(notification Notification) error
}

// Notification — то, что уходит клиенту после подтверждения заказа.
type Notification struct {
	EventID        string
	OrderReference string
	CustomerEmail  string
	TotalAmount    string
}

// Service превращает ConfirmationEvent из Kafka в уведомление клиенту.
// Доставка at-least-once, поэтому события дедуплицируются по EventID.
type Service struct {
	sender Sender
	logger *log.Entry

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewService создаёт notification service. Если sender не задан,
// уведомления только логируются.
func NewService(sender Sender, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "notification")
	}
	if sender == nil {
		sender = &logSender{logger: logger}
	}
	return &Service{
		sender: sender,
		logger: logger,
		seen:   make(map[string]struct{}),
	}
}

// Handle разбирает сообщение из notification-топика. Совместим с
// kafka.MessageHandler.
func (s *Service) Handle(_ context.Context, message *sarama.ConsumerMessage) error {
	var event kafka.ConfirmationEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		notificationsTotal.WithLabelValues("malformed").Inc()
		return fmt.Errorf("decode confirmation event: %w", err)
	}

	if event.EventType != kafka.EventTypeOrderConfirmed {
		notificationsTotal.WithLabelValues("skipped").Inc()
		s.logger.WithField("event_type", event.EventType).Debug("skipping unexpected event type")
		return nil
	}

	if s.alreadySeen(event.EventID) {
		notificationsTotal.WithLabelValues("duplicate").Inc()
		s.logger.WithField("event_id", event.EventID).Debug("duplicate event, skipping")
		return nil
	}

	notification := Notification{
		EventID:        event.EventID,
		OrderReference: event.Confirmation.OrderReference,
		CustomerEmail:  event.Confirmation.Customer.Email,
		TotalAmount:    event.Confirmation.TotalAmount.String(),
	}

	if err := s.sender.Send(notification); err != nil {
		notificationsTotal.WithLabelValues("failed").Inc()
		s.forget(event.EventID)
		return fmt.Errorf("send notification for %s: %w", notification.OrderReference, err)
	}

	notificationsTotal.WithLabelValues("sent").Inc()
	return nil
}

func (s *Service) alreadySeen(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[eventID]; ok {
		return true
	}
	s.seen[eventID] = struct{}{}
	return false
}

// forget убирает event из дедупликации, чтобы redelivery мог повторить отправку.
func (s *Service) forget(eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, eventID)
}

// logSender пишет уведомление в лог. Замена почтового шлюза для локального запуска.
type logSender struct {
	logger *log.Entry
}

func (l *logSender) Send(notification Notification) error {
	l.logger.WithFields(log.Fields{
		"order_reference": notification.OrderReference,
		"customer_email":  notification.CustomerEmail,
		"total_amount":    notification.TotalAmount,
	}).Info("order confirmed, notification sent")
	return nil
}

var _ Sender = (*logSender)(nil)
