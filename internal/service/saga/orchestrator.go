package saga

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
	"github.com/vladislavdragonenkov/orderflow/internal/metrics"
	"github.com/vladislavdragonenkov/orderflow/internal/service/reservation"
)

// Orchestrator координирует сагу оформления заказа.
type Orchestrator interface {
	// CreateOrder проводит заказ через все шаги саги и возвращает его идентификатор.
	//
	// Сбои до сохранения заказа (валидация клиента, резервирование) не оставляют
	// никаких следов. Сбои после сохранения — пост-коммитные: заказ и списанные
	// остатки остаются, возвращается идентификатор уже сохранённого заказа вместе
	// с ошибкой, пригодной для повторной обработки.
	CreateOrder(req domain.OrderRequest) (int64, error)
}

// orchestrator реализует последовательность шагов саги:
// Customer → Reserve → Persist → Payment → Publish.
type orchestrator struct {
	orders    domain.OrderRepository
	outbox    domain.OutboxRepository
	timeline  domain.TimelineRepository
	engine    reservation.Engine
	customers domain.CustomerClient
	payments  domain.PaymentClient
	publisher domain.ConfirmationPublisher
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
}

// Типы событий таймлайна заказа.
const (
	timelineEventCustomerValidated = "CustomerValidated"
	timelineEventStockReserved     = "StockReserved"
	timelineEventOrderPersisted    = "OrderPersisted"
	timelineEventPaymentRequested  = "PaymentRequested"
	timelineEventOrderConfirmed    = "OrderConfirmed"
	timelineEventStockReleased     = "StockReleased"
	timelineEventOrderFailed       = "OrderCreateFailed"

	outboxEventOrderConfirmation = "OrderConfirmation"
)

// NewOrchestrator создаёт рабочий экземпляр оркестратора.
func NewOrchestrator(
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	engine reservation.Engine,
	customers domain.CustomerClient,
	payments domain.PaymentClient,
	publisher domain.ConfirmationPublisher,
	logger *log.Entry,
) Orchestrator {
	return newOrchestrator(orders, outbox, timeline, engine, customers, payments, publisher, logger, metrics.NewOrderMetrics())
}

// NewOrchestratorWithoutMetrics создаёт оркестратор без метрик (для тестов).
func NewOrchestratorWithoutMetrics(
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	engine reservation.Engine,
	customers domain.CustomerClient,
	payments domain.PaymentClient,
	publisher domain.ConfirmationPublisher,
	logger *log.Entry,
) Orchestrator {
	return newOrchestrator(orders, outbox, timeline, engine, customers, payments, publisher, logger, nil)
}

func newOrchestrator(
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	engine reservation.Engine,
	customers domain.CustomerClient,
	payments domain.PaymentClient,
	publisher domain.ConfirmationPublisher,
	logger *log.Entry,
	m *metrics.OrderMetrics,
) Orchestrator {
	if logger == nil {
		logger = log.New().WithField("component", "saga")
	}
	return &orchestrator{
		orders:    orders,
		outbox:    outbox,
		timeline:  timeline,
		engine:    engine,
		customers: customers,
		payments:  payments,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
	}
}

// CreateOrder выполняет шаги саги строго по порядку. Резервирование идёт до
// сохранения заказа: любой сохранённый заказ соответствует уже списанному стоку.
func (o *orchestrator) CreateOrder(req domain.OrderRequest) (int64, error) {
	start := time.Now()
	if o.metrics != nil {
		o.metrics.RecordOrderStarted()
	}
	defer func() {
		if o.metrics != nil {
			o.metrics.RecordOrderDuration(time.Since(start))
			o.metrics.RecordOrderFinished()
		}
	}()

	if errs := req.ValidateInvariants(); len(errs) > 0 {
		o.failOrder(req.Reference, errs[0])
		return 0, errs[0]
	}

	// Шаг 1: валидация клиента — самое дешёвое условие, отказываем раньше всего.
	stepStart := time.Now()
	customer, err := o.customers.FindCustomerByID(req.CustomerID)
	o.observeStep(domain.SagaStepCustomer, stepStart)
	if err != nil {
		o.logger.WithError(err).WithField("customer_id", req.CustomerID).Warn("customer validation failed")
		o.failOrder(req.Reference, err)
		return 0, err
	}
	o.emitTimeline(req.Reference, timelineEventCustomerValidated, "")

	// Шаг 2: атомарное резервирование остатков по всем позициям.
	stepStart = time.Now()
	purchases, err := o.engine.Purchase(req.Lines)
	o.observeStep(domain.SagaStepReserve, stepStart)
	if err != nil {
		o.logger.WithError(err).WithField("reference", req.Reference).Warn("stock reservation failed")
		o.failOrder(req.Reference, err)
		return 0, err
	}
	o.emitTimeline(req.Reference, timelineEventStockReserved, "")

	// Шаг 3: сохранение заказа. При сбое компенсируем резерв — кроме стока
	// ещё ничего не зафиксировано, состояние возвращается к исходному.
	stepStart = time.Now()
	order, err := o.orders.Save(domain.Order{
		Reference:     req.Reference,
		TotalAmount:   req.Amount,
		PaymentMethod: req.PaymentMethod,
		CustomerID:    req.CustomerID,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		o.observeStep(domain.SagaStepPersist, stepStart)
		o.logger.WithError(err).WithField("reference", req.Reference).Error("order persistence failed")
		o.releaseStock(req.Reference, req.Lines)
		o.failOrder(req.Reference, err)
		return 0, wrapPersistence(err)
	}

	// Шаг 4: сохранение позиций. Заказ уже зафиксирован, сбой здесь пост-коммитный.
	for _, line := range req.Lines {
		if _, err := o.orders.SaveLine(domain.OrderLine{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  decimal.NewFromInt32(line.Quantity),
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			o.observeStep(domain.SagaStepPersist, stepStart)
			o.logger.WithError(err).WithFields(log.Fields{
				"order_id":   order.ID,
				"product_id": line.ProductID,
			}).Error("order line persistence failed")
			o.failOrder(req.Reference, err)
			return order.ID, wrapPersistence(err)
		}
	}
	o.observeStep(domain.SagaStepPersist, stepStart)
	o.emitTimeline(req.Reference, timelineEventOrderPersisted, "")

	// Шаг 5: запрос оплаты. Ждём только синхронный accept/reject.
	stepStart = time.Now()
	err = o.payments.RequestOrderPayment(domain.PaymentRequest{
		Amount:         req.Amount,
		PaymentMethod:  req.PaymentMethod,
		OrderID:        order.ID,
		OrderReference: order.Reference,
		Customer:       customer,
	})
	o.observeStep(domain.SagaStepPayment, stepStart)
	if err != nil {
		o.logger.WithError(err).WithField("order_id", order.ID).Error("payment request failed")
		o.failOrder(req.Reference, err)
		return order.ID, err
	}
	o.emitTimeline(req.Reference, timelineEventPaymentRequested, "")

	// Шаг 6: публикация подтверждения. Пост-коммитный сбой: сток и заказ не
	// откатываются, событие уходит в outbox на доотправку.
	confirmation := domain.OrderConfirmation{
		OrderReference: req.Reference,
		TotalAmount:    req.Amount,
		PaymentMethod:  req.PaymentMethod,
		Customer:       customer,
		Products:       purchases,
	}
	stepStart = time.Now()
	err = o.publisher.Publish(confirmation)
	o.observeStep(domain.SagaStepPublish, stepStart)
	if err != nil {
		o.logger.WithError(err).WithField("order_id", order.ID).Error("confirmation publish failed")
		o.enqueueConfirmation(confirmation)
		o.failOrder(req.Reference, err)
		return order.ID, err
	}

	o.emitTimeline(req.Reference, timelineEventOrderConfirmed, "")
	o.logger.WithFields(log.Fields{
		"order_id":  order.ID,
		"reference": order.Reference,
	}).Info("order created")
	if o.metrics != nil {
		o.metrics.RecordOrderCompleted()
	}
	return order.ID, nil
}

func (o *orchestrator) observeStep(step domain.SagaStep, start time.Time) {
	if o.metrics != nil {
		o.metrics.RecordStepDuration(string(step), time.Since(start))
	}
}

func (o *orchestrator) releaseStock(reference string, lines []domain.PurchaseLine) {
	if err := o.engine.Release(lines); err != nil {
		// Компенсация не удалась: расхождение остаётся на ручную сверку.
		o.logger.WithError(err).WithField("reference", reference).Error("stock release failed")
		return
	}
	o.emitTimeline(reference, timelineEventStockReleased, "")
}

func (o *orchestrator) failOrder(reference string, rootErr error) {
	if o.metrics != nil {
		o.metrics.RecordOrderFailed()
	}
	o.emitTimeline(reference, timelineEventOrderFailed, rootErr.Error())
}

func (o *orchestrator) emitTimeline(reference, eventType, reason string) {
	if o.timeline == nil {
		return
	}
	event := domain.TimelineEvent{
		Reference: reference,
		Type:      eventType,
		Reason:    reason,
		Occurred:  time.Now().UTC(),
	}
	if err := o.timeline.Append(event); err != nil {
		o.logger.WithError(err).WithFields(log.Fields{
			"reference": reference,
			"event":     eventType,
		}).Warn("append timeline event failed")
	} else if o.metrics != nil {
		o.metrics.RecordTimelineEvent()
	}
}

// enqueueConfirmation сохраняет подтверждение в outbox для доотправки воркером.
func (o *orchestrator) enqueueConfirmation(confirmation domain.OrderConfirmation) {
	if o.outbox == nil {
		return
	}
	payload, err := json.Marshal(confirmation)
	if err != nil {
		o.logger.WithError(err).WithField("reference", confirmation.OrderReference).Error("marshal confirmation failed")
		return
	}
	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   confirmation.OrderReference,
		EventType:     outboxEventOrderConfirmation,
		Payload:       payload,
	}
	if _, err := o.outbox.Enqueue(msg); err != nil {
		o.logger.WithError(err).WithField("reference", confirmation.OrderReference).Error("enqueue confirmation failed")
	} else if o.metrics != nil {
		o.metrics.RecordOutboxEvent()
	}
}

func wrapPersistence(err error) error {
	if errors.Is(err, domain.ErrOrderReferenceTaken) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrOrderPersistenceFailed, err)
}

var _ Orchestrator = (*orchestrator)(nil)
