package tax

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrTaxRateNotFound indicates the rate table has no entry for an HSN code.
	// Callers treat the line as untaxed and surface a warning.
	ErrTaxRateNotFound = errors.New("tax: rate not found for hsn code")
	// ErrInvalidRate indicates a rate outside [0,100)
	ErrInvalidRate = errors.New("tax: rate percent out of range")
)

// RateProvider resolves the applicable GST rate for an HSN code
type RateProvider interface {
	// GetTaxRate returns the rate in percent (e.g. 18 for 18%).
	// Returns an error wrapping ErrTaxRateNotFound for unknown codes.
	GetTaxRate(ctx context.Context, hsnCode string) (decimal.Decimal, error)
}

// RateProviderFunc adapts a function to RateProvider
type RateProviderFunc func(ctx context.Context, hsnCode string) (decimal.Decimal, error)

// GetTaxRate implements RateProvider
func (f RateProviderFunc) GetTaxRate(ctx context.Context, hsnCode string) (decimal.Decimal, error) {
	return f(ctx, hsnCode)
}

var hundred = decimal.NewFromInt(100)

// validRate reports whether a rate lies in [0,100)
func validRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThan(hundred)
}
