package tax

import (
	"github.com/shopspring/decimal"

	"github.com/storefront/cartsync/internal/domain/shared/valueobject"
)

// TaxBreakdown is the per-unit GST split of one price.
// CGST+SGST and IGST are mutually exclusive: at most one side is non-zero.
type TaxBreakdown struct {
	RatePercent  decimal.Decimal `json:"rate_percent"`
	IsInclusive  bool            `json:"is_inclusive"`
	PriceExclTax decimal.Decimal `json:"price_excl_tax"`
	PriceWithTax decimal.Decimal `json:"price_with_tax"`
	CGST         decimal.Decimal `json:"cgst"`
	SGST         decimal.Decimal `json:"sgst"`
	IGST         decimal.Decimal `json:"igst"`
}

// TotalTax returns CGST+SGST+IGST
func (b TaxBreakdown) TotalTax() decimal.Decimal {
	return b.CGST.Add(b.SGST).Add(b.IGST)
}

// IsZero reports whether no tax has been allocated
func (b TaxBreakdown) IsZero() bool {
	return b.CGST.IsZero() && b.SGST.IsZero() && b.IGST.IsZero()
}

// IsIntraState reports whether the breakdown uses the CGST/SGST split
func (b TaxBreakdown) IsIntraState() bool {
	return b.CGST.IsPositive() || b.SGST.IsPositive()
}

// Valid checks the split invariant: (cgst>0, sgst>0, igst=0), (igst>0, cgst=sgst=0) or all zero
func (b TaxBreakdown) Valid() bool {
	switch {
	case b.IsZero():
		return true
	case b.CGST.IsPositive() && b.SGST.IsPositive() && b.IGST.IsZero():
		return true
	case b.IGST.IsPositive() && b.CGST.IsZero() && b.SGST.IsZero():
		return true
	}
	return false
}

// Mul scales every amount by qty; used for line and order totals
func (b TaxBreakdown) Mul(qty int64) TaxBreakdown {
	q := decimal.NewFromInt(qty)
	out := b
	out.PriceExclTax = b.PriceExclTax.Mul(q)
	out.PriceWithTax = b.PriceWithTax.Mul(q)
	out.CGST = b.CGST.Mul(q)
	out.SGST = b.SGST.Mul(q)
	out.IGST = b.IGST.Mul(q)
	return out
}

// untaxed returns the breakdown of a line whose rate is unknown
func untaxed(unitPrice decimal.Decimal, inclusive bool) TaxBreakdown {
	return TaxBreakdown{
		RatePercent:  decimal.Zero,
		IsInclusive:  inclusive,
		PriceExclTax: unitPrice,
		PriceWithTax: unitPrice,
		CGST:         decimal.Zero,
		SGST:         decimal.Zero,
		IGST:         decimal.Zero,
	}
}

// Split computes the breakdown of one unit price at a known rate.
//
// Inclusive prices are back-calculated: the base is price/(1+rate/100) rounded to
// paise and the tax is the remainder, so base+tax reproduces the listed price.
// The intra-state halves are rate/2 each, rounded half-up; any paisa left over
// after rounding goes to SGST.
func Split(unitPrice, ratePercent decimal.Decimal, inclusive, intraState bool) TaxBreakdown {
	b := untaxed(unitPrice, inclusive)
	b.RatePercent = ratePercent

	var total decimal.Decimal
	if inclusive {
		divisor := decimal.NewFromInt(1).Add(ratePercent.Div(hundred))
		b.PriceExclTax = valueobject.RoundHalfUp(unitPrice.Div(divisor))
		total = unitPrice.Sub(b.PriceExclTax)
	} else {
		total = valueobject.RoundHalfUp(unitPrice.Mul(ratePercent).Div(hundred))
	}

	if total.IsPositive() {
		if intraState {
			b.CGST = valueobject.RoundHalfUp(b.PriceExclTax.Mul(ratePercent).Div(hundred.Mul(decimal.NewFromInt(2))))
			b.SGST = total.Sub(b.CGST)
			if !b.CGST.IsPositive() || !b.SGST.IsPositive() {
				b = splitSmall(b, unitPrice, total)
			}
		} else {
			b.IGST = total
		}
	}

	if !inclusive {
		b.PriceWithTax = b.PriceExclTax.Add(b.TotalTax())
	}
	return b
}

// splitSmall handles intra-state totals whose rate halves do not both round
// above zero. A total of two paise or more is halved with the odd paisa on
// SGST. A single paisa is charged on both halves only when the rate applied
// to the base rounds to at least one paisa; otherwise the line carries no tax
// and an inclusive price is all base.
func splitSmall(b TaxBreakdown, unitPrice, total decimal.Decimal) TaxBreakdown {
	if total.GreaterThan(valueobject.MinorUnit) {
		b.CGST = total.Div(decimal.NewFromInt(2)).Truncate(valueobject.MinorUnitPlaces)
		b.SGST = total.Sub(b.CGST)
		return b
	}
	target := valueobject.RoundHalfUp(b.PriceExclTax.Mul(b.RatePercent).Div(hundred))
	if target.IsZero() {
		b.CGST = decimal.Zero
		b.SGST = decimal.Zero
		if b.IsInclusive {
			b.PriceExclTax = unitPrice
		}
		return b
	}
	b.CGST = valueobject.MinorUnit
	b.SGST = valueobject.MinorUnit
	return b
}
