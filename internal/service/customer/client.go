package customer

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

const defaultTimeout = 3 * time.Second

// Client — HTTP-клиент внешнего customer-сервиса.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Entry
}

// NewClient создаёт клиент с ограниченным таймаутом запроса.
// Таймаут обязателен: зависший customer-сервис не должен подвешивать оформление заказа.
func NewClient(baseURL string, timeout time.Duration, logger *log.Entry) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = log.WithField("component", "customer-client")
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// FindCustomerByID возвращает карточку клиента либо ErrCustomerNotFound.
// Сетевые и серверные сбои маппятся в ErrCustomerLookupFailed.
func (c *Client) FindCustomerByID(id string) (domain.Customer, error) {
	endpoint := fmt.Sprintf("%s/api/v1/customers/%s", c.baseURL, url.PathEscape(id))

	resp, err := c.http.Get(endpoint)
	if err != nil {
		c.logger.WithError(err).WithField("customer_id", id).Warn("customer lookup transport error")
		return domain.Customer{}, fmt.Errorf("%w: %v", domain.ErrCustomerLookupFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		var customer domain.Customer
		if err := json.NewDecoder(resp.Body).Decode(&customer); err != nil {
			return domain.Customer{}, fmt.Errorf("%w: decode response: %v", domain.ErrCustomerLookupFailed, err)
		}
		return customer, nil
	case http.StatusNotFound:
		return domain.Customer{}, domain.ErrCustomerNotFound
	default:
		c.logger.WithFields(log.Fields{
			"customer_id": id,
			"status":      resp.StatusCode,
		}).Warn("customer lookup unexpected status")
		return domain.Customer{}, fmt.Errorf("%w: status %d", domain.ErrCustomerLookupFailed, resp.StatusCode)
	}
}

var _ domain.CustomerClient = (*Client)(nil)
