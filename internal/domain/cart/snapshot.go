package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/cartsync/internal/domain/shared/valueobject"
)

// ShippingMethod is the selected delivery option
type ShippingMethod struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

// UntaxedItem is a line whose rate could not be resolved and was treated as zero-rated
type UntaxedItem struct {
	ItemID    uuid.UUID `json:"item_id"`
	ProductID string    `json:"product_id"`
	HSNCode   string    `json:"hsn_code"`
	Reason    string    `json:"reason"`
}

// CartSnapshot holds the totals derived from the current line items.
// It is rebuilt after every mutation and never edited directly.
type CartSnapshot struct {
	Items             []LineItem      `json:"items"`
	ItemCount         int             `json:"item_count"`
	BuyerState        string          `json:"buyer_state"`
	SellerState       string          `json:"seller_state"`
	Shipping          ShippingMethod  `json:"shipping"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	CGSTTotal         decimal.Decimal `json:"cgst_total"`
	SGSTTotal         decimal.Decimal `json:"sgst_total"`
	IGSTTotal         decimal.Decimal `json:"igst_total"`
	ShippingAmount    decimal.Decimal `json:"shipping_amount"`
	ShippingTaxAmount decimal.Decimal `json:"shipping_tax_amount"`
	DiscountAmount    decimal.Decimal `json:"discount_amount"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
	UntaxedItems      []UntaxedItem   `json:"untaxed_items,omitempty"`
}

// emptySnapshot returns a snapshot with every amount at zero
func emptySnapshot() CartSnapshot {
	return CartSnapshot{
		Items:             []LineItem{},
		Subtotal:          decimal.Zero,
		TaxAmount:         decimal.Zero,
		CGSTTotal:         decimal.Zero,
		SGSTTotal:         decimal.Zero,
		IGSTTotal:         decimal.Zero,
		ShippingAmount:    decimal.Zero,
		ShippingTaxAmount: decimal.Zero,
		DiscountAmount:    decimal.Zero,
		GrandTotal:        decimal.Zero,
	}
}

// IsEmpty reports whether the cart has no lines
func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Find returns the line with the given item id
func (s CartSnapshot) Find(itemID uuid.UUID) (LineItem, bool) {
	for _, it := range s.Items {
		if it.ItemID == itemID {
			return it, true
		}
	}
	return LineItem{}, false
}

// GrandTotalMoney returns the grand total as Money in the default currency
func (s CartSnapshot) GrandTotalMoney() valueobject.Money {
	return valueobject.NewMoneyINR(s.GrandTotal)
}

// TaxMoney returns the total goods and shipping tax as Money
func (s CartSnapshot) TaxMoney() valueobject.Money {
	return valueobject.NewMoneyINR(s.TaxAmount.Add(s.ShippingTaxAmount))
}
