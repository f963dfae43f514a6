package app

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/orderflow/internal/health"
	"github.com/vladislavdragonenkov/orderflow/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orderflow/internal/metrics"
	"github.com/vladislavdragonenkov/orderflow/internal/service/customer"
	"github.com/vladislavdragonenkov/orderflow/internal/service/httpapi"
	"github.com/vladislavdragonenkov/orderflow/internal/service/idempotency"
	outboxsvc "github.com/vladislavdragonenkov/orderflow/internal/service/outbox"
	"github.com/vladislavdragonenkov/orderflow/internal/service/payment"
	"github.com/vladislavdragonenkov/orderflow/internal/service/product"
	"github.com/vladislavdragonenkov/orderflow/internal/service/reservation"
	"github.com/vladislavdragonenkov/orderflow/internal/version"
)

// Run собирает зависимости по конфигурации и запускает HTTP API,
// metrics-сервер и фоновые воркеры. Блокируется до отмены контекста
// или фатальной ошибки сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if deps.closeFn != nil {
		defer func() {
			if closeErr := deps.closeFn(); closeErr != nil {
				logger.WithError(closeErr).Warn("failed to close storage")
			}
		}()
	}

	// Kafka опционален: без brokers подтверждения только логируются.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	customers := initCustomerClient(cfg, logger)
	payments := initPaymentClient(cfg, logger)

	orderMetrics := metrics.NewOrderMetrics()
	engine := reservation.NewEngine(deps.products, orderMetrics, logger.WithField("layer", "reservation"))
	orchestrator := createOrchestrator(deps, engine, customers, payments, kafkaProducer, logger.WithField("layer", "saga"))
	productSvc := product.NewService(deps.products, engine, logger.WithField("layer", "product"))

	healthHandler := healthcheck.NewHandler(version.String())
	if deps.storageChecker != nil {
		healthHandler.RegisterChecker("storage", deps.storageChecker)
	}
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var outboxDone chan struct{}
	if kafkaProducer != nil {
		outboxPublisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicOrderConfirmations)
		outboxWorker := outboxsvc.NewWorker(deps.outboxRepo, outboxPublisher,
			outboxsvc.WithLogger(logger.WithField("worker", "outbox")),
			outboxsvc.WithPollInterval(cfg.OutboxPollInterval),
			outboxsvc.WithBatchSize(cfg.OutboxBatchSize),
			outboxsvc.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outboxsvc.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)
		outboxDone = make(chan struct{})
		go func() {
			defer close(outboxDone)
			outboxWorker.Run(workerCtx)
		}()
	}

	cleanupWorker := idempotency.NewCleanupWorker(deps.idempotencyRepo,
		idempotency.WithLogger(logger.WithField("worker", "idempotency-cleanup")),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)
	cleanupDone := make(chan struct{})
	go func() {
		defer close(cleanupDone)
		cleanupWorker.Run(workerCtx)
	}()

	apiServer := httpapi.NewServer(orchestrator, deps.repo, deps.timelineRepo, productSvc, deps.idempotencyRepo, logger.WithField("layer", "http"))
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: apiServer.Handler()}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(httpSrv, logger)
		stopWorker(cancelWorkers, outboxDone, "outbox", logger)
		stopWorker(nil, cleanupDone, "idempotency-cleanup", logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()

	case err := <-errCh:
		stopWorker(cancelWorkers, outboxDone, "outbox", logger)
		stopWorker(nil, cleanupDone, "idempotency-cleanup", logger)
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// initCustomerClient возвращает HTTP-клиент customer-сервиса, либо mock,
// если URL не задан.
func initCustomerClient(cfg Config, logger *log.Entry) domain.CustomerClient {
	if cfg.CustomerServiceURL == "" {
		logger.Info("customer service url is not set, using mock client")
		return customer.NewMockClient()
	}
	return customer.NewClient(cfg.CustomerServiceURL, cfg.ClientTimeout, logger.WithField("client", "customer"))
}

// initPaymentClient возвращает HTTP-клиент payment-сервиса, либо mock,
// если URL не задан.
func initPaymentClient(cfg Config, logger *log.Entry) domain.PaymentClient {
	if cfg.PaymentServiceURL == "" {
		logger.Info("payment service url is not set, using mock client")
		return payment.NewMockClient()
	}
	return payment.NewClient(cfg.PaymentServiceURL, cfg.ClientTimeout, logger.WithField("client", "payment"))
}
