package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product описывает товар каталога со складским остатком.
// AvailableQuantity мутируется исключительно движком резервирования.
type Product struct {
	ID          int64
	Name        string
	Description string
	// AvailableQuantity — складской остаток, никогда не опускается ниже нуля.
	AvailableQuantity int32
	Price             decimal.Decimal
	CategoryID        int64
	// Version используется для optimistic locking при конкурентных списаниях.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты товара.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if p.AvailableQuantity < 0 {
		errs = append(errs, ErrProductQtyNegative)
	}
	if p.Price.IsNegative() {
		errs = append(errs, ErrProductPriceNegative)
	}

	return errs
}

// PurchaseLine — запрошенная к резервированию позиция (товар, количество).
// Эфемерный value object, не персистится.
type PurchaseLine struct {
	ProductID int64
	Quantity  int32
}

// PurchaseResult — подтверждение покупки по одной позиции.
// Описательные поля и цена снимаются с товара до списания остатка.
type PurchaseResult struct {
	ProductID   int64
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int32
}

// ValidatePurchaseLines проверяет, что набор позиций пригоден для резервирования.
func ValidatePurchaseLines(lines []PurchaseLine) []error {
	var errs []error

	if len(lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	for _, line := range lines {
		if line.ProductID <= 0 {
			errs = append(errs, ErrLineProductInvalid)
		}
		if line.Quantity <= 0 {
			errs = append(errs, ErrLineQtyInvalid)
		}
	}

	return errs
}
