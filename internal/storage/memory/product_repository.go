package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

// productRepositoryInMemory — in-memory реализация ProductRepository.
// Один мьютекс на весь репозиторий: SaveAll применяет батч целиком либо никак.
type productRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[int64]domain.Product
	seq   int64
}

// NewProductRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewProductRepository() domain.ProductRepository {
	return &productRepositoryInMemory{
		items: make(map[int64]domain.Product),
	}
}

// Create сохраняет новый товар и назначает ему идентификатор.
func (r *productRepositoryInMemory) Create(product domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	product.ID = r.seq
	product.Version = 0
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.items[product.ID] = product
	return product, nil
}

// Get возвращает товар или ErrProductNotFound, если его нет.
func (r *productRepositoryInMemory) Get(id int64) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// List возвращает все товары, отсортированные по идентификатору.
func (r *productRepositoryInMemory) List() ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.items))
	for _, product := range r.items {
		result = append(result, product)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// FindByIDs возвращает существующие товары по списку идентификаторов, отсортированные по id.
// Отсутствующие идентификаторы молча пропускаются.
func (r *productRepositoryInMemory) FindByIDs(ids []int64) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int64]struct{}, len(ids))
	result := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if product, ok := r.items[id]; ok {
			result = append(result, product)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// SaveAll атомарно перезаписывает товары с проверкой версий (optimistic locking).
// При конфликте хотя бы одной версии не изменяется ни одна запись.
func (r *productRepositoryInMemory) SaveAll(products []domain.Product) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, product := range products {
		current, ok := r.items[product.ID]
		if !ok {
			return nil, domain.ErrProductNotFound
		}
		if current.Version != product.Version {
			return nil, domain.ErrProductVersionConflict
		}
	}

	now := time.Now().UTC()
	saved := make([]domain.Product, 0, len(products))
	for _, product := range products {
		product.Version++
		product.UpdatedAt = now
		r.items[product.ID] = product
		saved = append(saved, product)
	}
	return saved, nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
