package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

func TestProductValidateInvariants(t *testing.T) {
	product := domain.Product{
		Name:              "meat",
		Description:       "angus",
		AvailableQuantity: 4,
		Price:             decimal.NewFromInt(1000),
		CategoryID:        1,
	}
	if errs := product.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected valid product, got %v", errs)
	}

	product.Name = ""
	product.AvailableQuantity = -1
	product.Price = decimal.NewFromInt(-5)
	errs := product.ValidateInvariants()
	if len(errs) != 3 {
		t.Fatalf("expected 3 validation errors, got %v", errs)
	}
}

func TestValidatePurchaseLines(t *testing.T) {
	if errs := domain.ValidatePurchaseLines(nil); len(errs) == 0 {
		t.Fatal("empty batch must be rejected")
	}
	lines := []domain.PurchaseLine{{ProductID: 0, Quantity: 0}}
	if errs := domain.ValidatePurchaseLines(lines); len(errs) != 2 {
		t.Fatalf("expected 2 validation errors, got %v", errs)
	}
	ok := []domain.PurchaseLine{{ProductID: 1, Quantity: 2}}
	if errs := domain.ValidatePurchaseLines(ok); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}
