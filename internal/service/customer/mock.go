package customer

import "github.com/vladislavdragonenkov/orderflow/internal/domain"

// MockClient — конфигурируемая заглушка CustomerClient для тестов и локального запуска.
type MockClient struct {
	Customer domain.Customer
	Err      error

	LookupCalls int
}

// NewMockClient возвращает mock с успешным сценарием по умолчанию.
func NewMockClient() *MockClient {
	return &MockClient{
		Customer: domain.Customer{
			ID:        "customer-1",
			FirstName: "John",
			LastName:  "Doe",
			Email:     "john.doe@example.com",
		},
	}
}

// FindCustomerByID возвращает заранее настроенный результат и считает вызовы.
func (m *MockClient) FindCustomerByID(id string) (domain.Customer, error) {
	m.LookupCalls++
	if m.Err != nil {
		return domain.Customer{}, m.Err
	}
	customer := m.Customer
	customer.ID = id
	return customer, nil
}

var _ domain.CustomerClient = (*MockClient)(nil)
