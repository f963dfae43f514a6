package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod перечисляет поддерживаемые способы оплаты заказа.
type PaymentMethod string

const (
	PaymentMethodPaypal     PaymentMethod = "paypal"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodVisa       PaymentMethod = "visa"
	PaymentMethodMasterCard PaymentMethod = "master_card"
	PaymentMethodBitcoin    PaymentMethod = "bitcoin"
)

// IsValid проверяет, что способ оплаты входит в список поддерживаемых.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodPaypal, PaymentMethodCreditCard, PaymentMethodVisa,
		PaymentMethodMasterCard, PaymentMethodBitcoin:
		return true
	default:
		return false
	}
}

// OrderLine представляет одну позицию заказа.
type OrderLine struct {
	// ID назначается хранилищем при сохранении.
	ID int64
	// OrderID — обратная ссылка на заказ-владелец.
	OrderID int64
	// ProductID — внешний идентификатор товара.
	ProductID int64
	// Quantity — количество единиц товара, строго больше нуля.
	Quantity decimal.Decimal
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Order агрегирует состояние заказа и его позиции.
// Заказ создаётся один раз при оформлении и после этого в этом потоке не мутируется.
type Order struct {
	ID            int64
	Reference     string
	TotalAmount   decimal.Decimal
	PaymentMethod PaymentMethod
	CustomerID    string
	Lines         []OrderLine
	CreatedAt     time.Time
}

// OrderRequest — входные данные на создание заказа.
type OrderRequest struct {
	// Reference — человекочитаемый номер заказа, уникален и задаётся вызывающей стороной.
	Reference     string
	Amount        decimal.Decimal
	PaymentMethod PaymentMethod
	CustomerID    string
	Lines         []PurchaseLine
}

// ValidateInvariants проверяет базовые инварианты запроса и возвращает список замечаний.
func (r *OrderRequest) ValidateInvariants() []error {
	var errs []error

	if r.Reference == "" {
		errs = append(errs, ErrReferenceRequired)
	}
	if r.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if !r.PaymentMethod.IsValid() {
		errs = append(errs, ErrPaymentMethodInvalid)
	}
	if r.Amount.IsNegative() {
		errs = append(errs, ErrAmountNegative)
	}
	if len(r.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	for _, line := range r.Lines {
		if line.ProductID <= 0 {
			errs = append(errs, ErrLineProductInvalid)
		}
		if line.Quantity <= 0 {
			errs = append(errs, ErrLineQtyInvalid)
		}
	}

	return errs
}
