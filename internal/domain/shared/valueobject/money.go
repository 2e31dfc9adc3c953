// Package valueobject holds rupee amounts and the rounding every tax figure goes through.
package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code. Carts are priced in rupees only.
type Currency string

// INR is the only currency a cart is priced in
const INR Currency = "INR"

// MinorUnitPlaces is the precision of a paisa
const MinorUnitPlaces int32 = 2

// MinorUnit is one paisa
var MinorUnit = decimal.New(1, -MinorUnitPlaces)

// RoundHalfUp rounds to paise, ties away from zero. Invoice amounts are never
// negative so this is round-half-up in practice.
func RoundHalfUp(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MinorUnitPlaces)
}

// Money is a rounded rupee amount for display and export
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoneyINR rounds amount to paise
func NewMoneyINR(amount decimal.Decimal) Money {
	return Money{amount: RoundHalfUp(amount), currency: INR}
}

func (m Money) Amount() decimal.Decimal { return m.amount }

func (m Money) Currency() Currency { return m.currency }

func (m Money) IsZero() bool { return m.amount.IsZero() }

// String renders "1180.00 INR"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(MinorUnitPlaces), m.currency)
}

// MarshalJSON writes the amount as a fixed two-place string so totals survive
// clients that parse numbers as floats.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}{
		Amount:   m.amount.StringFixed(MinorUnitPlaces),
		Currency: m.currency,
	})
}

// UnmarshalJSON accepts a missing currency as INR and rejects any other
func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Currency != "" && v.Currency != INR {
		return fmt.Errorf("unsupported currency %q", v.Currency)
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	*m = NewMoneyINR(amount)
	return nil
}
