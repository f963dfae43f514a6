package domain

import "github.com/shopspring/decimal"

// OrderConfirmation — неизменяемое событие об успешно оформленном заказе.
// Собирается один раз из результатов шагов саги и публикуется в notification-канал.
type OrderConfirmation struct {
	OrderReference string           `json:"order_reference"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	PaymentMethod  PaymentMethod    `json:"payment_method"`
	Customer       Customer         `json:"customer"`
	Products       []PurchaseResult `json:"products"`
}
