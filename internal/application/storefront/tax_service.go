package storefront

import (
	"context"
	"fmt"

	"github.com/storefront/cartsync/internal/domain/shared"
	"github.com/storefront/cartsync/internal/domain/tax"
)

// TaxService runs order-level tax calculations with the server's rate table
type TaxService struct {
	engine *tax.Engine
}

// NewTaxService creates a new TaxService
func NewTaxService(engine *tax.Engine) *TaxService {
	return &TaxService{engine: engine}
}

// CalculateOrderTax validates the order and computes its taxes
func (s *TaxService) CalculateOrderTax(ctx context.Context, in tax.OrderTaxInput) (tax.OrderTaxResult, error) {
	for i, line := range in.Items {
		if line.Quantity < 0 {
			return tax.OrderTaxResult{}, shared.NewDomainError("INVALID_QUANTITY",
				fmt.Sprintf("Line %d: quantity cannot be negative", i))
		}
		if line.UnitPrice.IsNegative() {
			return tax.OrderTaxResult{}, shared.NewDomainError("INVALID_PRICE",
				fmt.Sprintf("Line %d: unit price cannot be negative", i))
		}
	}
	if in.ShippingAmount.IsNegative() || in.DiscountAmount.IsNegative() {
		return tax.OrderTaxResult{}, shared.NewDomainError("INVALID_AMOUNT", "Shipping and discount cannot be negative")
	}
	return s.engine.ComputeOrderTax(ctx, in), nil
}
