// Package catalog holds the server-side product and HSN rate records backing
// the stock and rate lookups.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/cartsync/internal/domain/shared"
)

// Product is a sellable catalog entry
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	IsInclusive bool
	HSNCode     string
	SellerID    string
	SellerState string
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the invariants of a product row
func (p *Product) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return shared.NewDomainError("INVALID_PRODUCT", "Product id is required")
	case p.Price.IsNegative():
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	case p.Stock < 0:
		return shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	return nil
}

// HSNRate is the GST rate of one HSN code
type HSNRate struct {
	Code        string
	RatePercent decimal.Decimal
	UpdatedAt   time.Time
}

// ProductRepository persists products.
// FindByID returns shared.ErrNotFound for unknown ids.
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	FindAll(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, p *Product) error
	Count(ctx context.Context) (int64, error)
}

// RateRepository persists HSN rates.
// FindByCode returns shared.ErrNotFound for unknown codes.
type RateRepository interface {
	FindByCode(ctx context.Context, code string) (*HSNRate, error)
	Save(ctx context.Context, r *HSNRate) error
}
