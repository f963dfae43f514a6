package product

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
	"github.com/vladislavdragonenkov/orderflow/internal/service/reservation"
)

// Service — каталог товаров: CRUD поверх репозитория плюс проксирование
// закупки в reservation engine.
type Service interface {
	Create(product domain.Product) (domain.Product, error)
	FindByID(id int64) (domain.Product, error)
	List() ([]domain.Product, error)
	// Purchase атомарно списывает остатки по всем позициям запроса.
	Purchase(lines []domain.PurchaseLine) ([]domain.PurchaseResult, error)
}

type service struct {
	products domain.ProductRepository
	engine   reservation.Engine
	logger   *log.Entry
}

// NewService создаёт сервис каталога товаров.
func NewService(products domain.ProductRepository, engine reservation.Engine, logger *log.Entry) Service {
	if logger == nil {
		logger = log.New().WithField("component", "product")
	}
	return &service{
		products: products,
		engine:   engine,
		logger:   logger,
	}
}

// Create валидирует и сохраняет новый товар.
func (s *service) Create(product domain.Product) (domain.Product, error) {
	if errs := product.ValidateInvariants(); len(errs) > 0 {
		return domain.Product{}, errors.Join(errs...)
	}

	created, err := s.products.Create(product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.WithFields(log.Fields{
		"product_id": created.ID,
		"name":       created.Name,
	}).Info("product created")
	return created, nil
}

// FindByID возвращает товар или ErrProductNotFound.
func (s *service) FindByID(id int64) (domain.Product, error) {
	return s.products.Get(id)
}

// List возвращает все товары каталога.
func (s *service) List() ([]domain.Product, error) {
	return s.products.List()
}

// Purchase делегирует списание остатков reservation engine.
func (s *service) Purchase(lines []domain.PurchaseLine) ([]domain.PurchaseResult, error) {
	return s.engine.Purchase(lines)
}

var _ Service = (*service)(nil)
