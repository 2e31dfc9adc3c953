package cart

import (
	"github.com/google/uuid"

	"github.com/storefront/cartsync/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeCart = "Cart"

// Event type constants
const (
	EventTypeItemAdded       = "cart.item_added"
	EventTypeQuantityUpdated = "cart.quantity_updated"
	EventTypeItemRemoved     = "cart.item_removed"
	EventTypeCleared         = "cart.cleared"
	EventTypeReplaced        = "cart.replaced"
	EventTypePricingChanged  = "cart.pricing_changed"
)

// AllEventTypes lists every event a Store publishes
var AllEventTypes = []string{
	EventTypeItemAdded,
	EventTypeQuantityUpdated,
	EventTypeItemRemoved,
	EventTypeCleared,
	EventTypeReplaced,
	EventTypePricingChanged,
}

// CartChangedEvent is raised after every mutation once taxes and totals are fresh.
// Items is a copy of the full cart so handlers can persist it without calling back.
type CartChangedEvent struct {
	shared.BaseDomainEvent
	CartID uuid.UUID  `json:"cart_id"`
	ItemID uuid.UUID  `json:"item_id,omitempty"`
	Items  []LineItem `json:"items"`
}

// NewCartChangedEvent creates a CartChangedEvent of the given type
func NewCartChangedEvent(eventType string, cartID, itemID uuid.UUID, items []LineItem) *CartChangedEvent {
	return &CartChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeCart, cartID),
		CartID:          cartID,
		ItemID:          itemID,
		Items:           items,
	}
}
