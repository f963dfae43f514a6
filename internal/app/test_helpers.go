package app

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

// sampleConfirmation возвращает тестовое подтверждение заказа.
func sampleConfirmation() domain.OrderConfirmation {
	return domain.OrderConfirmation{
		OrderReference: "ORD-2024-0001",
		TotalAmount:    decimal.RequireFromString("149.90"),
		PaymentMethod:  domain.PaymentMethodPaypal,
		Customer: domain.Customer{
			ID:        "customer-1",
			FirstName: "John",
			LastName:  "Doe",
			Email:     "john.doe@example.com",
		},
		Products: []domain.PurchaseResult{
			{ProductID: 1, Name: "Keyboard", Quantity: 2},
		},
	}
}
