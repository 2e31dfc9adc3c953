package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/cartsync/internal/domain/tax"
)

// LineItem is one product from one seller in the cart.
// Tax amounts are per unit; multiply by Quantity for line totals.
type LineItem struct {
	ItemID uuid.UUID `json:"item_id"`
	// RemoteID is assigned by the remote store; empty until the first successful remote write
	RemoteID    string           `json:"remote_id,omitempty"`
	ProductID   string           `json:"product_id"`
	Name        string           `json:"name"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	IsInclusive bool             `json:"is_inclusive"`
	Quantity    int              `json:"quantity"`
	SellerID    string           `json:"seller_id"`
	SellerState string           `json:"seller_state"`
	HSNCode     string           `json:"hsn_code"`
	Tax         tax.TaxBreakdown `json:"tax"`
}

type itemKey struct {
	productID string
	sellerID  string
}

func (i LineItem) key() itemKey {
	return itemKey{productID: i.ProductID, sellerID: i.SellerID}
}

// Validate checks the fields an add intent must carry
func (i LineItem) Validate() error {
	if strings.TrimSpace(i.ProductID) == "" {
		return ErrInvalidItem
	}
	if i.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

// IsSynced reports whether the remote store knows this item
func (i LineItem) IsSynced() bool {
	return i.RemoteID != ""
}

// LineSubtotal returns the tax-exclusive value of the line
func (i LineItem) LineSubtotal() decimal.Decimal {
	return i.Tax.PriceExclTax.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LineTax returns the total tax of the line
func (i LineItem) LineTax() decimal.Decimal {
	return i.Tax.TotalTax().Mul(decimal.NewFromInt(int64(i.Quantity)))
}
