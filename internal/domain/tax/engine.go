package tax

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Engine computes GST breakdowns. Given the same rates it is a pure function of
// its inputs, so a client and a server running it agree to the paisa.
type Engine struct {
	rates  RateProvider
	policy UnknownStatePolicy
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithUnknownStatePolicy sets how a missing buyer or seller state is treated
func WithUnknownStatePolicy(policy UnknownStatePolicy) EngineOption {
	return func(e *Engine) {
		if policy.IsValid() {
			e.policy = policy
		}
	}
}

// NewEngine creates an engine backed by the given rate table
func NewEngine(rates RateProvider, opts ...EngineOption) *Engine {
	e := &Engine{
		rates:  rates,
		policy: UnknownStateIntra,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the unknown-state policy in effect
func (e *Engine) Policy() UnknownStatePolicy {
	return e.policy
}

// IsIntraState applies the jurisdiction rule with the engine's policy
func (e *Engine) IsIntraState(buyerState, sellerState string) bool {
	return IsIntraState(buyerState, sellerState, e.policy)
}

// LookupRate resolves and validates the rate for an HSN code
func (e *Engine) LookupRate(ctx context.Context, hsnCode string) (decimal.Decimal, error) {
	if hsnCode == "" || e.rates == nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrTaxRateNotFound, hsnCode)
	}
	rate, err := e.rates.GetTaxRate(ctx, hsnCode)
	if err != nil {
		return decimal.Zero, err
	}
	if !validRate(rate) {
		return decimal.Zero, fmt.Errorf("%w: %s for hsn %q", ErrInvalidRate, rate, hsnCode)
	}
	return rate, nil
}

// ComputeLineTax returns the per-unit breakdown for one price.
//
// A missing or invalid rate never blocks the caller: the returned breakdown is the
// untaxed one (rate 0) and the error explains why, for surfacing as a warning.
func (e *Engine) ComputeLineTax(ctx context.Context, unitPrice decimal.Decimal, hsnCode, buyerState, sellerState string, isInclusive bool) (TaxBreakdown, error) {
	rate, err := e.LookupRate(ctx, hsnCode)
	if err != nil {
		return untaxed(unitPrice, isInclusive), err
	}
	return Split(unitPrice, rate, isInclusive, e.IsIntraState(buyerState, sellerState)), nil
}
