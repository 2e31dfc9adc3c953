package remote

import (
	"context"
	"net/http"

	"github.com/storefront/cartsync/internal/domain/tax"
)

// TaxClient calls the server-side order tax endpoint, the reference the local
// engine is checked against
type TaxClient struct {
	*Client
}

// NewTaxClient creates an order tax client
func NewTaxClient(baseURL string, opts ...Option) *TaxClient {
	return &TaxClient{Client: NewClient(baseURL, opts...)}
}

// CalculateOrderTax posts the order and returns the server's computation
func (c *TaxClient) CalculateOrderTax(ctx context.Context, in tax.OrderTaxInput) (tax.OrderTaxResult, error) {
	var out tax.OrderTaxResult
	_, err := c.do(ctx, http.MethodPost, "/tax/calculate-order-tax", false, in, &out)
	return out, err
}
