package cart

import (
	"github.com/shopspring/decimal"

	"github.com/storefront/cartsync/internal/domain/cart"
)

// SessionState is the coordinator's position in the sync state machine
type SessionState string

const (
	StateAnonymous     SessionState = "anonymous"
	StateSyncing       SessionState = "syncing"
	StateAuthenticated SessionState = "authenticated"
)

// AddItemInput is an add-to-cart intent
type AddItemInput struct {
	ProductID   string          `json:"product_id" validate:"required,max=64"`
	Name        string          `json:"name" validate:"max=200"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	IsInclusive bool            `json:"is_inclusive"`
	Quantity    int             `json:"quantity" validate:"gte=1"`
	SellerID    string          `json:"seller_id" validate:"max=64"`
	SellerState string          `json:"seller_state" validate:"omitempty,max=8"`
	HSNCode     string          `json:"hsn_code" validate:"omitempty,max=16"`
}

func (in AddItemInput) lineItem() cart.LineItem {
	return cart.LineItem{
		ProductID:   in.ProductID,
		Name:        in.Name,
		UnitPrice:   in.UnitPrice,
		IsInclusive: in.IsInclusive,
		Quantity:    in.Quantity,
		SellerID:    in.SellerID,
		SellerState: in.SellerState,
		HSNCode:     in.HSNCode,
	}
}

// MutationResult is the outcome of an accepted intent
type MutationResult struct {
	Item    cart.LineItem
	Removed bool
	// EffectiveQuantity is the quantity applied, which may be below the request when clamped
	EffectiveQuantity int
	Clamped           bool
	Warnings          []cart.Warning
	Snapshot          cart.CartSnapshot
}

// SyncReport summarises a login merge
type SyncReport struct {
	Pushed   []cart.LineItem
	Failed   []cart.PushFailure
	Warnings []cart.Warning
	Snapshot cart.CartSnapshot
}
