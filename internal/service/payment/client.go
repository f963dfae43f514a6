package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

const defaultTimeout = 5 * time.Second

// Client — HTTP-клиент внешнего платёжного сервиса.
// Контракт синхронный: принят запрос или нет; асинхронный расчёт вне зоны ответственности.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Entry
}

// NewClient создаёт клиент с ограниченным таймаутом запроса.
func NewClient(baseURL string, timeout time.Duration, logger *log.Entry) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = log.WithField("component", "payment-client")
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// RequestOrderPayment просит платёжный сервис провести оплату заказа.
// Любой не-2xx ответ или транспортный сбой маппится в ErrPaymentRequestFailed.
func (c *Client) RequestOrderPayment(req domain.PaymentRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", domain.ErrPaymentRequestFailed, err)
	}

	resp, err := c.http.Post(c.baseURL+"/api/v1/payments", "application/json", bytes.NewReader(body))
	if err != nil {
		c.logger.WithError(err).WithFields(log.Fields{
			"order_id":  req.OrderID,
			"reference": req.OrderReference,
		}).Warn("payment request transport error")
		return fmt.Errorf("%w: %v", domain.ErrPaymentRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WithFields(log.Fields{
			"order_id":  req.OrderID,
			"reference": req.OrderReference,
			"status":    resp.StatusCode,
		}).Warn("payment request rejected")
		return fmt.Errorf("%w: status %d", domain.ErrPaymentRequestFailed, resp.StatusCode)
	}

	c.logger.WithFields(log.Fields{
		"order_id":  req.OrderID,
		"reference": req.OrderReference,
	}).Debug("payment request accepted")
	return nil
}

var _ domain.PaymentClient = (*Client)(nil)
