package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики оформления заказов и резервирования остатков.
type OrderMetrics struct {
	// Счётчики саги создания заказа
	ordersStarted   prometheus.Counter
	ordersCompleted prometheus.Counter
	ordersFailed    prometheus.Counter

	// Гистограммы времени выполнения
	orderDuration prometheus.Histogram
	stepDuration  *prometheus.HistogramVec

	// Счётчики резервирования
	reservationsCompleted prometheus.Counter
	reservationsRejected  prometheus.Counter
	reservationConflicts  prometheus.Counter

	// Счётчики событий
	timelineEvents prometheus.Counter
	outboxEvents   prometheus.Counter

	// Gauge для активных оформлений
	activeOrders prometheus.Gauge
}

// NewOrderMetrics создаёт новый экземпляр метрик заказов.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderflow_orders_started_total",
			Help: "Total number of order creations started",
		}),
		ordersCompleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderflow_orders_completed_total",
			Help: "Total number of order creations completed successfully",
		}),
		ordersFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderflow_orders_failed_total",
			Help: "Total number of order creations failed",
		}),
		orderDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orderflow_order_duration_seconds",
			Help:    "Duration of the order creation flow in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stepDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "orderflow_order_step_duration_seconds",
			Help:    "Duration of individual order creation steps in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"step"}),
		reservationsCompleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderflow_reservations_completed_total",
			Help: "Total number of stock reservations applied",
		}),
		reservationsRejected: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderflow_reservations_rejected_total",
			Help: "Total number of stock reservations rejected by business rules",
		}),
		reservationConflicts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderflow_reservation_conflicts_total",
			Help: "Total number of optimistic-lock conflicts during stock reservation",
		}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderflow_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderflow_outbox_events_total",
			Help: "Total number of outbox events enqueued",
		}),
		activeOrders: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "orderflow_active_orders",
			Help: "Number of order creations currently in flight",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderStarted увеличивает счётчик начатых оформлений.
func (m *OrderMetrics) RecordOrderStarted() {
	m.ordersStarted.Inc()
	m.activeOrders.Inc()
}

// RecordOrderCompleted увеличивает счётчик успешно оформленных заказов.
func (m *OrderMetrics) RecordOrderCompleted() {
	m.ordersCompleted.Inc()
}

// RecordOrderFailed увеличивает счётчик неудачных оформлений.
func (m *OrderMetrics) RecordOrderFailed() {
	m.ordersFailed.Inc()
}

// RecordOrderFinished уменьшает количество активных оформлений.
func (m *OrderMetrics) RecordOrderFinished() {
	m.activeOrders.Dec()
}

// RecordOrderDuration записывает время полного оформления заказа.
func (m *OrderMetrics) RecordOrderDuration(duration time.Duration) {
	m.orderDuration.Observe(duration.Seconds())
}

// RecordStepDuration записывает время выполнения шага оформления.
func (m *OrderMetrics) RecordStepDuration(step string, duration time.Duration) {
	m.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// RecordReservationCompleted увеличивает счётчик успешных резервирований.
func (m *OrderMetrics) RecordReservationCompleted() {
	m.reservationsCompleted.Inc()
}

// RecordReservationRejected увеличивает счётчик отклонённых резервирований.
func (m *OrderMetrics) RecordReservationRejected() {
	m.reservationsRejected.Inc()
}

// RecordReservationConflict увеличивает счётчик конфликтов optimistic locking.
func (m *OrderMetrics) RecordReservationConflict() {
	m.reservationConflicts.Inc()
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *OrderMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *OrderMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
