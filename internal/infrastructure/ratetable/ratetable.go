// Package ratetable provides in-process GST rate sources.
package ratetable

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/storefront/cartsync/internal/domain/tax"
)

// Static is a fixed HSN code to rate table, typically loaded from config
type Static struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal
}

// NewStatic creates a table from rates; codes are matched case-insensitively
func NewStatic(rates map[string]decimal.Decimal) *Static {
	s := &Static{rates: make(map[string]decimal.Decimal, len(rates))}
	for code, rate := range rates {
		s.rates[normalize(code)] = rate
	}
	return s
}

// GetTaxRate implements tax.RateProvider
func (s *Static) GetTaxRate(_ context.Context, hsnCode string) (decimal.Decimal, error) {
	s.mu.RLock()
	rate, ok := s.rates[normalize(hsnCode)]
	s.mu.RUnlock()
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", tax.ErrTaxRateNotFound, hsnCode)
	}
	return rate, nil
}

// Set adds or replaces a rate
func (s *Static) Set(hsnCode string, rate decimal.Decimal) {
	s.mu.Lock()
	s.rates[normalize(hsnCode)] = rate
	s.mu.Unlock()
}

// Rates returns a copy of the table
func (s *Static) Rates() map[string]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.rates)
}

// Len returns the number of codes in the table
func (s *Static) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rates)
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Chain asks each provider in order and returns the first rate found.
// A provider failing with anything other than tax.ErrTaxRateNotFound stops the chain.
type Chain []tax.RateProvider

// GetTaxRate implements tax.RateProvider
func (c Chain) GetTaxRate(ctx context.Context, hsnCode string) (decimal.Decimal, error) {
	for _, p := range c {
		if p == nil {
			continue
		}
		rate, err := p.GetTaxRate(ctx, hsnCode)
		if err == nil {
			return rate, nil
		}
		if !errors.Is(err, tax.ErrTaxRateNotFound) {
			return decimal.Zero, err
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %q", tax.ErrTaxRateNotFound, hsnCode)
}

var (
	_ tax.RateProvider = (*Static)(nil)
	_ tax.RateProvider = Chain(nil)
)
