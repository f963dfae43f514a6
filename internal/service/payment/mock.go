package payment

import "github.com/vladislavdragonenkov/orderflow/internal/domain"

// MockClient — конфигурируемая заглушка PaymentClient для тестов и локального запуска.
type MockClient struct {
	Err error

	RequestCalls int
	LastRequest  domain.PaymentRequest
}

// NewMockClient возвращает mock с успешным сценарием по умолчанию.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// RequestOrderPayment возвращает заранее настроенную ошибку и считает вызовы.
func (m *MockClient) RequestOrderPayment(req domain.PaymentRequest) error {
	m.RequestCalls++
	m.LastRequest = req
	return m.Err
}

var _ domain.PaymentClient = (*MockClient)(nil)
