package reservation

import (
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
	"github.com/vladislavdragonenkov/orderflow/internal/metrics"
)

// Engine описывает движок резервирования складских остатков.
type Engine interface {
	// Purchase атомарно резервирует весь набор позиций либо не меняет ничего.
	// Нехватка остатка — бизнес-исход (ErrInsufficientStock), а не сбой; повторов
	// по бизнес-ошибкам движок не делает.
	Purchase(lines []domain.PurchaseLine) ([]domain.PurchaseResult, error)
	// Release возвращает ранее списанные остатки (компенсация неудавшегося заказа).
	Release(lines []domain.PurchaseLine) error
}

// engine реализует check-and-decrement поверх ProductRepository с optimistic locking.
type engine struct {
	products domain.ProductRepository
	logger   *log.Entry
	metrics  *metrics.OrderMetrics
}

// NewEngine создаёт рабочий экземпляр движка резервирования.
func NewEngine(products domain.ProductRepository, m *metrics.OrderMetrics, logger *log.Entry) Engine {
	if logger == nil {
		logger = log.New().WithField("component", "reservation")
	}
	return &engine{
		products: products,
		logger:   logger,
		metrics:  m,
	}
}

const (
	conflictBaseDelay = 2 * time.Millisecond
	conflictMaxDelay  = 50 * time.Millisecond
)

// Purchase валидирует и списывает остатки одним батчем.
// При конфликте версий батч перечитывается и применяется заново: конфликт
// означает, что другой батч успел зафиксироваться, поэтому цикл всегда
// завершается — либо успехом, либо бизнес-ошибкой на свежих данных.
func (e *engine) Purchase(lines []domain.PurchaseLine) ([]domain.PurchaseResult, error) {
	if errs := domain.ValidatePurchaseLines(lines); len(errs) > 0 {
		return nil, errs[0]
	}

	delay := conflictBaseDelay
	for {
		results, err := e.tryPurchase(lines)
		if err == nil {
			if e.metrics != nil {
				e.metrics.RecordReservationCompleted()
			}
			return results, nil
		}
		if !domain.IsVersionConflict(err) {
			if e.metrics != nil {
				e.metrics.RecordReservationRejected()
			}
			return nil, err
		}

		if e.metrics != nil {
			e.metrics.RecordReservationConflict()
		}
		e.logger.WithField("delay", delay.String()).Debug("reservation version conflict, retrying")
		time.Sleep(delay)
		if delay *= 2; delay > conflictMaxDelay {
			delay = conflictMaxDelay
		}
	}
}

func (e *engine) tryPurchase(lines []domain.PurchaseLine) ([]domain.PurchaseResult, error) {
	ids := distinctSortedIDs(lines)

	products, err := e.products.FindByIDs(ids)
	if err != nil {
		return nil, err
	}

	// Хранилище молча пропускает отсутствующие id — сверяем выборку с запросом.
	if len(products) < len(ids) {
		return nil, &domain.ProductNotFoundError{MissingIDs: missingIDs(ids, products)}
	}

	byID := make(map[int64]*domain.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	// Проверяем и списываем по рабочим копиям: хранилище не трогаем до SaveAll,
	// так что частичное списание не наблюдаемо ни при каком исходе.
	results := make([]domain.PurchaseResult, 0, len(lines))
	var shortages []domain.StockShortage
	for _, line := range lines {
		product := byID[line.ProductID]
		if product.AvailableQuantity < line.Quantity {
			shortages = append(shortages, domain.StockShortage{
				ProductID: product.ID,
				Requested: line.Quantity,
				Available: product.AvailableQuantity,
			})
			continue
		}
		results = append(results, domain.PurchaseResult{
			ProductID:   product.ID,
			Name:        product.Name,
			Description: product.Description,
			Price:       product.Price,
			Quantity:    line.Quantity,
		})
		product.AvailableQuantity -= line.Quantity
	}
	if len(shortages) > 0 {
		return nil, &domain.InsufficientStockError{Shortages: shortages}
	}

	if _, err := e.products.SaveAll(products); err != nil {
		return nil, err
	}
	return results, nil
}

// Release возвращает остатки по всем позициям батча. Конфликт версий
// перечитывается и повторяется так же, как в Purchase.
func (e *engine) Release(lines []domain.PurchaseLine) error {
	if errs := domain.ValidatePurchaseLines(lines); len(errs) > 0 {
		return errs[0]
	}

	delay := conflictBaseDelay
	for {
		err := e.tryRelease(lines)
		if err == nil || !domain.IsVersionConflict(err) {
			return err
		}
		if e.metrics != nil {
			e.metrics.RecordReservationConflict()
		}
		time.Sleep(delay)
		if delay *= 2; delay > conflictMaxDelay {
			delay = conflictMaxDelay
		}
	}
}

func (e *engine) tryRelease(lines []domain.PurchaseLine) error {
	ids := distinctSortedIDs(lines)

	products, err := e.products.FindByIDs(ids)
	if err != nil {
		return err
	}
	if len(products) < len(ids) {
		return &domain.ProductNotFoundError{MissingIDs: missingIDs(ids, products)}
	}

	byID := make(map[int64]*domain.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for _, line := range lines {
		byID[line.ProductID].AvailableQuantity += line.Quantity
	}

	_, err = e.products.SaveAll(products)
	return err
}

func distinctSortedIDs(lines []domain.PurchaseLine) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func missingIDs(requested []int64, found []domain.Product) []int64 {
	present := make(map[int64]struct{}, len(found))
	for _, product := range found {
		present[product.ID] = struct{}{}
	}
	missing := make([]int64, 0, len(requested))
	for _, id := range requested {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

var _ Engine = (*engine)(nil)
