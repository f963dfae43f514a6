package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Ошибка отсутствующего номера заказа.
	ErrReferenceRequired = errors.New("order reference is required")
	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка неподдерживаемого способа оплаты.
	ErrPaymentMethodInvalid = errors.New("payment method is not supported")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("amount must be non-negative")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrLinesRequired = errors.New("order must contain at least one line")
	// Ошибка при некорректном идентификаторе товара в позиции.
	ErrLineProductInvalid = errors.New("line product_id must be greater than zero")
	// Ошибка при некорректном количестве товара в позиции (<= 0).
	ErrLineQtyInvalid = errors.New("line quantity must be greater than zero")
	// Ошибка отсутствующего имени товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка отрицательного складского остатка.
	ErrProductQtyNegative = errors.New("product available quantity must be non-negative")
	// Ошибка отрицательной цены товара.
	ErrProductPriceNegative = errors.New("product price must be non-negative")

	// ErrCustomerNotFound — клиент с указанным идентификатором не существует (бизнес-ошибка).
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrCustomerLookupFailed — временная ошибка при обращении к customer-сервису.
	ErrCustomerLookupFailed = errors.New("customer lookup failed")
	// ErrProductNotFound — хотя бы один из запрошенных товаров не существует.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock — остатка не хватает хотя бы по одной позиции (бизнес-ошибка, не сбой).
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderReferenceTaken — заказ с таким reference уже существует.
	ErrOrderReferenceTaken = errors.New("order reference already taken")
	// ErrProductVersionConflict сигнализирует о конфликте версий при сохранении остатков.
	ErrProductVersionConflict = errors.New("product version conflict")
	// ErrOrderPersistenceFailed — сбой при сохранении заказа или его позиций.
	ErrOrderPersistenceFailed = errors.New("order persistence failed")
	// ErrPaymentRequestFailed — платёжный сервис не принял запрос на оплату.
	ErrPaymentRequestFailed = errors.New("payment request failed")
	// ErrEventPublishFailed — не удалось опубликовать подтверждение заказа.
	ErrEventPublishFailed = errors.New("event publish failed")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")

	// ErrIdempotencyKeyRequired — пустой idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — пустой хеш запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyHashMismatch — ключ переиспользован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency request hash mismatch")
	// ErrIdempotencyKeyAlreadyExists — запись по ключу уже создана.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyKeyNotFound — запись по ключу отсутствует.
	ErrIdempotencyKeyNotFound = errors.New("idempotency record not found")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий остатков.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrProductVersionConflict)
}

// StockShortage описывает нехватку остатка по конкретному товару.
type StockShortage struct {
	ProductID int64
	Requested int32
	Available int32
}

// InsufficientStockError перечисляет позиции, по которым не хватило остатка.
// Через errors.Is сопоставляется с ErrInsufficientStock.
type InsufficientStockError struct {
	Shortages []StockShortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("product %d: requested %d, available %d", s.ProductID, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// ProductNotFoundError перечисляет идентификаторы отсутствующих товаров.
// Через errors.Is сопоставляется с ErrProductNotFound.
type ProductNotFoundError struct {
	MissingIDs []int64
}

func (e *ProductNotFoundError) Error() string {
	parts := make([]string, 0, len(e.MissingIDs))
	for _, id := range e.MissingIDs {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return "product not found: " + strings.Join(parts, ", ")
}

func (e *ProductNotFoundError) Unwrap() error {
	return ErrProductNotFound
}
