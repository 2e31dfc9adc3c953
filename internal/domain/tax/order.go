package tax

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// DefaultShippingRatePercent is the GST rate applied to shipping charges
var DefaultShippingRatePercent = decimal.NewFromInt(18)

// OrderLine is one priced line submitted for order-level tax calculation
type OrderLine struct {
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int64           `json:"quantity"`
	HSNCode     string          `json:"hsn_code"`
	IsInclusive bool            `json:"is_inclusive"`
	// SellerState overrides the order-level seller state for this line
	SellerState string `json:"seller_state,omitempty"`
}

// OrderTaxInput is the request for an order-level computation. A nil
// ShippingRatePercent means DefaultShippingRatePercent; zero is a valid rate.
type OrderTaxInput struct {
	Items               []OrderLine      `json:"items"`
	BuyerState          string           `json:"buyer_state"`
	SellerState         string           `json:"seller_state"`
	ShippingAmount      decimal.Decimal  `json:"shipping_amount"`
	ApplyTaxToShipping  bool             `json:"apply_tax_to_shipping"`
	ShippingRatePercent *decimal.Decimal `json:"shipping_rate_percent,omitempty"`
	DiscountAmount      decimal.Decimal  `json:"discount_amount"`
}

// LineTaxResult is the per-unit breakdown of a line plus its quantity totals
type LineTaxResult struct {
	Breakdown    TaxBreakdown    `json:"breakdown"`
	Quantity     int64           `json:"quantity"`
	TaxableValue decimal.Decimal `json:"taxable_value"`
	CGST         decimal.Decimal `json:"cgst"`
	SGST         decimal.Decimal `json:"sgst"`
	IGST         decimal.Decimal `json:"igst"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	Untaxed      bool            `json:"untaxed"`
}

// RateWarning reports a line that was treated as untaxed
type RateWarning struct {
	LineIndex int    `json:"line_index"`
	HSNCode   string `json:"hsn_code"`
	Reason    string `json:"reason"`
	// NotFound and Invalid are both false when the rate source itself failed
	NotFound bool `json:"not_found"`
	Invalid  bool `json:"invalid"`
}

// OrderTaxResult is the full tax picture of an order
type OrderTaxResult struct {
	Lines             []LineTaxResult `json:"lines"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	CGSTTotal         decimal.Decimal `json:"cgst_total"`
	SGSTTotal         decimal.Decimal `json:"sgst_total"`
	IGSTTotal         decimal.Decimal `json:"igst_total"`
	ShippingAmount    decimal.Decimal `json:"shipping_amount"`
	ShippingTax       TaxBreakdown    `json:"shipping_tax"`
	ShippingTaxAmount decimal.Decimal `json:"shipping_tax_amount"`
	DiscountAmount    decimal.Decimal `json:"discount_amount"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
	Warnings          []RateWarning   `json:"warnings,omitempty"`
}

// ComputeOrderTax sums per-line taxes and taxes shipping under the order-level
// jurisdiction. It never fails: lines without a usable rate are untaxed and listed
// in Warnings.
func (e *Engine) ComputeOrderTax(ctx context.Context, in OrderTaxInput) OrderTaxResult {
	res := OrderTaxResult{
		Lines:          make([]LineTaxResult, 0, len(in.Items)),
		Subtotal:       decimal.Zero,
		TaxAmount:      decimal.Zero,
		CGSTTotal:      decimal.Zero,
		SGSTTotal:      decimal.Zero,
		IGSTTotal:      decimal.Zero,
		ShippingAmount: in.ShippingAmount,
		DiscountAmount: in.DiscountAmount,
	}

	for i, line := range in.Items {
		sellerState := line.SellerState
		if sellerState == "" {
			sellerState = in.SellerState
		}
		b, err := e.ComputeLineTax(ctx, line.UnitPrice, line.HSNCode, in.BuyerState, sellerState, line.IsInclusive)
		lr := lineResult(b, line.Quantity)
		if err != nil {
			lr.Untaxed = true
			res.Warnings = append(res.Warnings, RateWarning{
				LineIndex: i,
				HSNCode:   line.HSNCode,
				Reason:    err.Error(),
				NotFound:  errors.Is(err, ErrTaxRateNotFound),
				Invalid:   errors.Is(err, ErrInvalidRate),
			})
		}
		res.Lines = append(res.Lines, lr)
		res.Subtotal = res.Subtotal.Add(lr.TaxableValue)
		res.CGSTTotal = res.CGSTTotal.Add(lr.CGST)
		res.SGSTTotal = res.SGSTTotal.Add(lr.SGST)
		res.IGSTTotal = res.IGSTTotal.Add(lr.IGST)
	}
	res.TaxAmount = res.CGSTTotal.Add(res.SGSTTotal).Add(res.IGSTTotal)

	shippingRate := DefaultShippingRatePercent
	if in.ShippingRatePercent != nil {
		shippingRate = *in.ShippingRatePercent
	}
	res.ShippingTax = untaxed(in.ShippingAmount, false)
	if in.ApplyTaxToShipping && in.ShippingAmount.IsPositive() && validRate(shippingRate) {
		res.ShippingTax = Split(in.ShippingAmount, shippingRate, false, e.IsIntraState(in.BuyerState, in.SellerState))
	}
	res.ShippingTaxAmount = res.ShippingTax.TotalTax()

	res.GrandTotal = res.Subtotal.
		Add(res.TaxAmount).
		Add(res.ShippingAmount).
		Add(res.ShippingTaxAmount).
		Sub(res.DiscountAmount)
	if res.GrandTotal.IsNegative() {
		res.GrandTotal = decimal.Zero
	}
	return res
}

func lineResult(b TaxBreakdown, qty int64) LineTaxResult {
	total := b.Mul(qty)
	return LineTaxResult{
		Breakdown:    b,
		Quantity:     qty,
		TaxableValue: total.PriceExclTax,
		CGST:         total.CGST,
		SGST:         total.SGST,
		IGST:         total.IGST,
		TaxAmount:    total.TotalTax(),
	}
}
