package postgres

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

func TestProductRepository_PostgresCreateGetList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewProductRepository(store)

	created, err := repo.Create(domain.Product{
		Name:              "keyboard",
		Description:       "mechanical keyboard",
		AvailableQuantity: 10,
		Price:             decimal.RequireFromString("49.90"),
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if created.ID == 0 || created.Version != 0 {
		t.Fatalf("unexpected created product: %+v", created)
	}

	got, err := repo.Get(created.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Name != "keyboard" || got.AvailableQuantity != 10 {
		t.Fatalf("unexpected product payload: %+v", got)
	}
	if !got.Price.Equal(decimal.RequireFromString("49.90")) {
		t.Fatalf("unexpected price: %s", got.Price)
	}

	if _, err := repo.Get(404); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 product, got %d", len(all))
	}
}

func TestProductRepository_PostgresFindByIDs(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewProductRepository(store)

	p1, err := repo.Create(domain.Product{Name: "keyboard", AvailableQuantity: 4, Price: decimal.RequireFromString("49.90")})
	if err != nil {
		t.Fatalf("create p1: %v", err)
	}
	p2, err := repo.Create(domain.Product{Name: "mouse", AvailableQuantity: 5, Price: decimal.RequireFromString("19.90")})
	if err != nil {
		t.Fatalf("create p2: %v", err)
	}

	// Дубликаты и отсутствующие идентификаторы не влияют на результат.
	found, err := repo.FindByIDs([]int64{p2.ID, p1.ID, p1.ID, 404})
	if err != nil {
		t.Fatalf("find by ids: %v", err)
	}
	if len(found) != 2 || found[0].ID != p1.ID || found[1].ID != p2.ID {
		t.Fatalf("unexpected find result: %+v", found)
	}

	empty, err := repo.FindByIDs(nil)
	if err != nil {
		t.Fatalf("find by empty ids: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty result, got %+v", empty)
	}
}

func TestProductRepository_PostgresSaveAllOptimisticLock(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewProductRepository(store)

	p1, err := repo.Create(domain.Product{Name: "keyboard", AvailableQuantity: 4, Price: decimal.RequireFromString("49.90")})
	if err != nil {
		t.Fatalf("create p1: %v", err)
	}
	p2, err := repo.Create(domain.Product{Name: "mouse", AvailableQuantity: 5, Price: decimal.RequireFromString("19.90")})
	if err != nil {
		t.Fatalf("create p2: %v", err)
	}

	p1.AvailableQuantity = 2
	p2.AvailableQuantity = 2
	saved, err := repo.SaveAll([]domain.Product{p1, p2})
	if err != nil {
		t.Fatalf("save all: %v", err)
	}
	if len(saved) != 2 || saved[0].Version != 1 || saved[1].Version != 1 {
		t.Fatalf("unexpected saved batch: %+v", saved)
	}

	// Повторная запись той же (устаревшей) версии конфликтует и не меняет ни одной строки.
	p2.AvailableQuantity = 0
	if _, err := repo.SaveAll([]domain.Product{p1, p2}); !errors.Is(err, domain.ErrProductVersionConflict) {
		t.Fatalf("expected ErrProductVersionConflict, got %v", err)
	}

	current, err := repo.Get(p2.ID)
	if err != nil {
		t.Fatalf("get p2: %v", err)
	}
	if current.AvailableQuantity != 2 || current.Version != 1 {
		t.Fatalf("conflicting batch must not apply partially: %+v", current)
	}

	// Батч с несуществующим товаром тоже откатывается целиком.
	missing := domain.Product{ID: 404, Name: "ghost", AvailableQuantity: 1, Price: decimal.RequireFromString("1.00")}
	if _, err := repo.SaveAll([]domain.Product{saved[0], missing}); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}
