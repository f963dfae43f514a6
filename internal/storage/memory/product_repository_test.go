package memory

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

func seedProduct(t *testing.T, repo domain.ProductRepository, name string, qty int32) domain.Product {
	t.Helper()

	product, err := repo.Create(domain.Product{
		Name:              name,
		Description:       name + " description",
		AvailableQuantity: qty,
		Price:             decimal.NewFromInt(100),
		CategoryID:        1,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func TestProductRepository_CreateAssignsIDs(t *testing.T) {
	repo := NewProductRepository()

	first := seedProduct(t, repo, "meat", 4)
	second := seedProduct(t, repo, "cheese", 5)

	if first.ID == 0 || second.ID == 0 {
		t.Fatal("ids must be assigned")
	}
	if first.ID == second.ID {
		t.Fatal("ids must be unique")
	}
}

func TestProductRepository_GetNotFound(t *testing.T) {
	repo := NewProductRepository()

	if _, err := repo.Get(999); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductRepository_FindByIDs(t *testing.T) {
	repo := NewProductRepository()
	p1 := seedProduct(t, repo, "meat", 4)
	p2 := seedProduct(t, repo, "cheese", 5)

	// Запрашиваем в обратном порядке, с дубликатом и несуществующим id.
	found, err := repo.FindByIDs([]int64{p2.ID, p1.ID, p1.ID, 999})
	if err != nil {
		t.Fatalf("find by ids: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 products, got %d", len(found))
	}
	if found[0].ID != p1.ID || found[1].ID != p2.ID {
		t.Fatalf("expected products sorted by id, got %v", []int64{found[0].ID, found[1].ID})
	}
}

func TestProductRepository_SaveAllAllOrNothing(t *testing.T) {
	repo := NewProductRepository()
	p1 := seedProduct(t, repo, "meat", 4)
	p2 := seedProduct(t, repo, "cheese", 5)

	p1.AvailableQuantity = 2
	p2.AvailableQuantity = 3
	p2.Version = 42 // устаревшая версия

	if _, err := repo.SaveAll([]domain.Product{p1, p2}); !errors.Is(err, domain.ErrProductVersionConflict) {
		t.Fatalf("expected ErrProductVersionConflict, got %v", err)
	}

	// Ни одна запись не должна измениться.
	reloaded, err := repo.Get(p1.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.AvailableQuantity != 4 || reloaded.Version != 0 {
		t.Fatalf("first product mutated on failed batch: qty=%d version=%d", reloaded.AvailableQuantity, reloaded.Version)
	}
}

func TestProductRepository_SaveAllBumpsVersions(t *testing.T) {
	repo := NewProductRepository()
	p1 := seedProduct(t, repo, "meat", 4)

	p1.AvailableQuantity = 2
	saved, err := repo.SaveAll([]domain.Product{p1})
	if err != nil {
		t.Fatalf("save all: %v", err)
	}
	if saved[0].Version != 1 {
		t.Fatalf("expected version bump to 1, got %d", saved[0].Version)
	}

	// Повторное сохранение со старой версией должно конфликтовать.
	if _, err := repo.SaveAll([]domain.Product{p1}); !errors.Is(err, domain.ErrProductVersionConflict) {
		t.Fatalf("expected ErrProductVersionConflict, got %v", err)
	}
}
