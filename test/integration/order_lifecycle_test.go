package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
	"github.com/vladislavdragonenkov/orderflow/internal/service/customer"
	"github.com/vladislavdragonenkov/orderflow/internal/service/httpapi"
	outboxsvc "github.com/vladislavdragonenkov/orderflow/internal/service/outbox"
	"github.com/vladislavdragonenkov/orderflow/internal/service/payment"
	"github.com/vladislavdragonenkov/orderflow/internal/service/product"
	"github.com/vladislavdragonenkov/orderflow/internal/service/reservation"
	"github.com/vladislavdragonenkov/orderflow/internal/service/saga"
	"github.com/vladislavdragonenkov/orderflow/internal/storage/memory"
)

type recordingPublisher struct {
	mu        sync.Mutex
	err       error
	published []domain.OrderConfirmation
}

func (p *recordingPublisher) Publish(confirmation domain.OrderConfirmation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, confirmation)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type recordingOutboxPublisher struct {
	mu        sync.Mutex
	published []domain.OutboxMessage
}

func (p *recordingOutboxPublisher) Publish(event domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, event)
	return nil
}

// OrderLifecycleTestSuite тестирует полный жизненный цикл заказов через HTTP API.
type OrderLifecycleTestSuite struct {
	suite.Suite
	server    *httptest.Server
	orders    domain.OrderRepository
	products  domain.ProductRepository
	outbox    domain.OutboxRepository
	customers *customer.MockClient
	payments  *payment.MockClient
	publisher *recordingPublisher
}

func (suite *OrderLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	suite.orders = memory.NewOrderRepository()
	suite.products = memory.NewProductRepository()
	suite.outbox = memory.NewOutboxRepository()
	timeline := memory.NewTimelineRepository()
	idemRepo := memory.NewIdempotencyRepository()

	suite.customers = customer.NewMockClient()
	suite.payments = payment.NewMockClient()
	suite.publisher = &recordingPublisher{}

	engine := reservation.NewEngine(suite.products, nil, logger)
	orchestrator := saga.NewOrchestratorWithoutMetrics(
		suite.orders,
		suite.outbox,
		timeline,
		engine,
		suite.customers,
		suite.payments,
		suite.publisher,
		logger,
	)
	productSvc := product.NewService(suite.products, engine, logger)

	apiServer := httpapi.NewServer(orchestrator, suite.orders, timeline, productSvc, idemRepo, logger)
	suite.server = httptest.NewServer(apiServer.Handler())
}

func (suite *OrderLifecycleTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *OrderLifecycleTestSuite) seedProduct(name string, quantity int32, price string) int64 {
	created, err := suite.products.Create(domain.Product{
		Name:              name,
		AvailableQuantity: quantity,
		Price:             decimal.RequireFromString(price),
	})
	require.NoError(suite.T(), err)
	return created.ID
}

func (suite *OrderLifecycleTestSuite) productQuantity(id int64) int32 {
	p, err := suite.products.Get(id)
	require.NoError(suite.T(), err)
	return p.AvailableQuantity
}

func (suite *OrderLifecycleTestSuite) postJSON(path string, body map[string]any, headers map[string]string) *http.Response {
	payload, err := json.Marshal(body)
	require.NoError(suite.T(), err)

	req, err := http.NewRequest(http.MethodPost, suite.server.URL+path, bytes.NewReader(payload))
	require.NoError(suite.T(), err)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := suite.server.Client().Do(req)
	require.NoError(suite.T(), err)
	return resp
}

func orderBody(reference string, productID int64, quantity int32) map[string]any {
	return map[string]any{
		"reference":      reference,
		"amount":         "99.80",
		"payment_method": "paypal",
		"customer_id":    "customer-123",
		"lines": []map[string]any{
			{"product_id": productID, "quantity": quantity},
		},
	}
}

func (suite *OrderLifecycleTestSuite) TestSuccessfulOrderLifecycle() {
	// 1. Заводим товар
	productID := suite.seedProduct("laptop-pro", 4, "49.90")

	// 2. Оформляем заказ
	resp := suite.postJSON("/api/v1/orders", orderBody("ORD-2024-1001", productID, 2), map[string]string{
		"Idempotency-Key": "lifecycle-key-1",
	})
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)

	var created struct {
		OrderID int64 `json:"order_id"`
	}
	require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.NotZero(suite.T(), created.OrderID)

	// 3. Проверяем финальное состояние заказа и таймлайн
	getResp, err := suite.server.Client().Get(fmt.Sprintf("%s/api/v1/orders/%d", suite.server.URL, created.OrderID))
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), http.StatusOK, getResp.StatusCode)

	var order struct {
		Reference string `json:"reference"`
		Lines     []struct {
			ProductID int64 `json:"product_id"`
		} `json:"lines"`
		Timeline []struct {
			Type string `json:"type"`
		} `json:"timeline"`
	}
	require.NoError(suite.T(), json.NewDecoder(getResp.Body).Decode(&order))
	getResp.Body.Close()

	require.Equal(suite.T(), "ORD-2024-1001", order.Reference)
	require.Len(suite.T(), order.Lines, 1)
	require.GreaterOrEqual(suite.T(), len(order.Timeline), 5) // validated -> reserved -> persisted -> payment -> confirmed

	// 4. Сток уменьшен, платёж запрошен, подтверждение опубликовано
	require.Equal(suite.T(), int32(2), suite.productQuantity(productID))
	require.Equal(suite.T(), 1, suite.payments.RequestCalls)
	require.Equal(suite.T(), 1, suite.publisher.count())
}

func (suite *OrderLifecycleTestSuite) TestIdempotentRetryDoesNotDuplicate() {
	productID := suite.seedProduct("mouse-wireless", 5, "49.90")
	headers := map[string]string{"Idempotency-Key": "retry-key-1"}
	body := orderBody("ORD-2024-1002", productID, 2)

	// 1. Первый запрос оформляет заказ
	resp1 := suite.postJSON("/api/v1/orders", body, headers)
	require.Equal(suite.T(), http.StatusCreated, resp1.StatusCode)
	var first struct {
		OrderID int64 `json:"order_id"`
	}
	require.NoError(suite.T(), json.NewDecoder(resp1.Body).Decode(&first))
	resp1.Body.Close()

	// 2. Повтор с тем же ключом возвращает кэшированный результат
	resp2 := suite.postJSON("/api/v1/orders", body, headers)
	require.Equal(suite.T(), http.StatusCreated, resp2.StatusCode)
	var second struct {
		OrderID int64 `json:"order_id"`
	}
	require.NoError(suite.T(), json.NewDecoder(resp2.Body).Decode(&second))
	resp2.Body.Close()

	require.Equal(suite.T(), first.OrderID, second.OrderID)

	// 3. Побочные эффекты выполнились ровно один раз
	orders, err := suite.orders.List()
	require.NoError(suite.T(), err)
	require.Len(suite.T(), orders, 1)
	require.Equal(suite.T(), int32(3), suite.productQuantity(productID))
	require.Equal(suite.T(), 1, suite.payments.RequestCalls)
}

func (suite *OrderLifecycleTestSuite) TestInsufficientStockLeavesNoSideEffects() {
	productID := suite.seedProduct("gpu-limited", 1, "999.00")

	resp := suite.postJSON("/api/v1/orders", orderBody("ORD-2024-1003", productID, 5), nil)
	require.Equal(suite.T(), http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Ни заказа, ни платежа, ни изменения стока
	orders, err := suite.orders.List()
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), orders)
	require.Equal(suite.T(), 0, suite.payments.RequestCalls)
	require.Equal(suite.T(), int32(1), suite.productQuantity(productID))
	require.Equal(suite.T(), 0, suite.publisher.count())
}

func (suite *OrderLifecycleTestSuite) TestPublishFailureDrainsThroughOutbox() {
	productID := suite.seedProduct("keyboard", 4, "49.90")
	suite.publisher.err = fmt.Errorf("broker is down")

	// 1. Заказ оформляется несмотря на сбой публикации
	resp := suite.postJSON("/api/v1/orders", orderBody("ORD-2024-1004", productID, 2), nil)
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// 2. Подтверждение попало в outbox
	pending, err := suite.outbox.PullPending(10)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), pending, 1)
	require.Equal(suite.T(), "OrderConfirmation", pending[0].EventType)

	// 3. Воркер дренирует outbox во внешний publisher
	outboxPublisher := &recordingOutboxPublisher{}
	worker := outboxsvc.NewWorker(suite.outbox, outboxPublisher)
	worker.ProcessOnce(context.Background())

	require.Len(suite.T(), outboxPublisher.published, 1)

	stats, err := suite.outbox.Stats()
	require.NoError(suite.T(), err)
	require.Zero(suite.T(), stats.PendingCount)
}

func (suite *OrderLifecycleTestSuite) TestConcurrentPurchasesNeverOversell() {
	const (
		stock   = int32(5)
		buyers  = 20
		perLine = int32(1)
	)
	productID := suite.seedProduct("flash-sale-item", stock, "9.90")

	var wg sync.WaitGroup
	statuses := make([]int, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := orderBody(fmt.Sprintf("ORD-2024-2%03d", i), productID, perLine)
			resp := suite.postJSON("/api/v1/orders", body, nil)
			statuses[i] = resp.StatusCode
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, status := range statuses {
		if status == http.StatusCreated {
			succeeded++
		}
	}

	// Ровно min(покупатели, сток) заказов проходят, сток никогда не уходит в минус
	require.Equal(suite.T(), int(stock), succeeded)
	require.Equal(suite.T(), int32(0), suite.productQuantity(productID))

	orders, err := suite.orders.List()
	require.NoError(suite.T(), err)
	require.Len(suite.T(), orders, int(stock))
}

func TestOrderLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}
