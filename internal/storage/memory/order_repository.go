package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu         sync.RWMutex
	orders     map[int64]domain.Order
	references map[string]int64
	orderSeq   int64
	lineSeq    int64
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		orders:     make(map[int64]domain.Order),
		references: make(map[string]int64),
	}
}

// Save сохраняет новый заказ, назначая идентификатор. Reference обязан быть уникальным.
func (r *orderRepositoryInMemory) Save(order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.references[order.Reference]; taken {
		return domain.Order{}, domain.ErrOrderReferenceTaken
	}

	r.orderSeq++
	order.ID = r.orderSeq
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	// Позиции сохраняются отдельно через SaveLine.
	order.Lines = nil
	r.orders[order.ID] = order
	r.references[order.Reference] = order.ID
	return order, nil
}

// SaveLine сохраняет позицию заказа, назначая идентификатор.
func (r *orderRepositoryInMemory) SaveLine(line domain.OrderLine) (domain.OrderLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[line.OrderID]
	if !ok {
		return domain.OrderLine{}, domain.ErrOrderNotFound
	}

	r.lineSeq++
	line.ID = r.lineSeq
	if line.CreatedAt.IsZero() {
		line.CreatedAt = time.Now().UTC()
	}
	order.Lines = append(order.Lines, line)
	r.orders[line.OrderID] = order
	return line, nil
}

// Get возвращает заказ с позициями или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id int64) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	// Возвращаем копию позиций, чтобы избежать непредсказуемых мутаций извне.
	lines := make([]domain.OrderLine, len(order.Lines))
	copy(lines, order.Lines)
	order.Lines = lines
	return order, nil
}

// List возвращает все заказы от новых к старым.
func (r *orderRepositoryInMemory) List() ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		lines := make([]domain.OrderLine, len(order.Lines))
		copy(lines, order.Lines)
		order.Lines = lines
		result = append(result, order)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
