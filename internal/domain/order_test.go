package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

// helper для создания базового запроса на заказ с одной позицией.
func makeOrderRequest() domain.OrderRequest {
	return domain.OrderRequest{
		Reference:     "ORD-1001",
		Amount:        decimal.NewFromInt(500),
		PaymentMethod: domain.PaymentMethodPaypal,
		CustomerID:    "customer-1",
		Lines: []domain.PurchaseLine{
			{ProductID: 1, Quantity: 5},
		},
	}
}

func TestOrderRequestValidateInvariants_Ok(t *testing.T) {
	req := makeOrderRequest()
	if errs := req.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderRequestValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(r *domain.OrderRequest)
		want error
	}{
		{
			name: "no reference",
			mut: func(r *domain.OrderRequest) {
				r.Reference = ""
			},
			want: domain.ErrReferenceRequired,
		},
		{
			name: "no customer",
			mut: func(r *domain.OrderRequest) {
				r.CustomerID = ""
			},
			want: domain.ErrCustomerRequired,
		},
		{
			name: "bad payment method",
			mut: func(r *domain.OrderRequest) {
				r.PaymentMethod = "cash"
			},
			want: domain.ErrPaymentMethodInvalid,
		},
		{
			name: "negative amount",
			mut: func(r *domain.OrderRequest) {
				r.Amount = decimal.NewFromInt(-1)
			},
			want: domain.ErrAmountNegative,
		},
		{
			name: "no lines",
			mut: func(r *domain.OrderRequest) {
				r.Lines = nil
			},
			want: domain.ErrLinesRequired,
		},
		{
			name: "qty invalid",
			mut: func(r *domain.OrderRequest) {
				r.Lines[0].Quantity = 0
			},
			want: domain.ErrLineQtyInvalid,
		},
		{
			name: "product invalid",
			mut: func(r *domain.OrderRequest) {
				r.Lines[0].ProductID = 0
			},
			want: domain.ErrLineProductInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := makeOrderRequest()
			tc.mut(&req)

			errs := req.ValidateInvariants()
			if len(errs) == 0 {
				t.Fatalf("expected validation errors, got none")
			}
			found := false
			for _, err := range errs {
				if err == tc.want {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %v among %v", tc.want, errs)
			}
		})
	}
}

func TestPaymentMethodIsValid(t *testing.T) {
	valid := []domain.PaymentMethod{
		domain.PaymentMethodPaypal,
		domain.PaymentMethodCreditCard,
		domain.PaymentMethodVisa,
		domain.PaymentMethodMasterCard,
		domain.PaymentMethodBitcoin,
	}
	for _, m := range valid {
		if !m.IsValid() {
			t.Fatalf("method %q should be valid", m)
		}
	}
	if domain.PaymentMethod("cheque").IsValid() {
		t.Fatal("unknown method should be invalid")
	}
}
