package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/domain/shared"
	"github.com/storefront/cartsync/internal/domain/tax"
)

// CatalogClient resolves HSN rates and stock levels from the storefront API.
// Rates are cached for rateTTL; stock is always fetched fresh.
type CatalogClient struct {
	*Client
	rateTTL time.Duration

	mu    sync.Mutex
	rates map[string]cachedRate
}

type cachedRate struct {
	rate    decimal.Decimal
	expires time.Time
}

// NewCatalogClient creates a catalog client; rateTTL <= 0 disables the rate cache
func NewCatalogClient(baseURL string, rateTTL time.Duration, opts ...Option) *CatalogClient {
	return &CatalogClient{
		Client:  NewClient(baseURL, opts...),
		rateTTL: rateTTL,
		rates:   make(map[string]cachedRate),
	}
}

// GetTaxRate implements tax.RateProvider. A 404 maps to tax.ErrTaxRateNotFound.
func (c *CatalogClient) GetTaxRate(ctx context.Context, hsnCode string) (decimal.Decimal, error) {
	if r, ok := c.cached(hsnCode); ok {
		return r, nil
	}
	var body TaxRate
	_, err := c.do(ctx, http.MethodGet, "/catalog/hsn/"+url.PathEscape(hsnCode)+"/rate", false, nil, &body)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return decimal.Zero, fmt.Errorf("%w: %q", tax.ErrTaxRateNotFound, hsnCode)
		}
		return decimal.Zero, fmt.Errorf("rate lookup for %q: %w", hsnCode, err)
	}
	c.store(hsnCode, body.RatePercent)
	return body.RatePercent, nil
}

// GetStockLevel implements cart.StockProvider
func (c *CatalogClient) GetStockLevel(ctx context.Context, productID string) (int, error) {
	var body StockLevel
	if _, err := c.do(ctx, http.MethodGet, "/catalog/products/"+url.PathEscape(productID)+"/stock", false, nil, &body); err != nil {
		return 0, fmt.Errorf("stock lookup for %q: %w", productID, err)
	}
	return body.Stock, nil
}

// GetProduct fetches a catalog entry. A 404 is shared.ErrNotFound.
func (c *CatalogClient) GetProduct(ctx context.Context, productID string) (Product, error) {
	var body Product
	if _, err := c.do(ctx, http.MethodGet, "/catalog/products/"+url.PathEscape(productID), false, nil, &body); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return Product{}, fmt.Errorf("product %q: %w", productID, shared.ErrNotFound)
		}
		return Product{}, fmt.Errorf("product lookup for %q: %w", productID, err)
	}
	return body, nil
}

func (c *CatalogClient) cached(hsn string) (decimal.Decimal, bool) {
	if c.rateTTL <= 0 {
		return decimal.Zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rates[hsn]
	if !ok || time.Now().After(r.expires) {
		return decimal.Zero, false
	}
	return r.rate, true
}

func (c *CatalogClient) store(hsn string, rate decimal.Decimal) {
	if c.rateTTL <= 0 {
		return
	}
	c.mu.Lock()
	c.rates[hsn] = cachedRate{rate: rate, expires: time.Now().Add(c.rateTTL)}
	c.mu.Unlock()
}

var (
	_ tax.RateProvider   = (*CatalogClient)(nil)
	_ cart.StockProvider = (*CatalogClient)(nil)
)
