package cart

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/cartsync/internal/domain/shared"
	"github.com/storefront/cartsync/internal/domain/tax"
)

// ItemChange describes the outcome of a single-item mutation
type ItemChange struct {
	Item    LineItem
	Removed bool
	// RequestedQuantity is what the caller asked for (after merging, for adds)
	RequestedQuantity int
	// EffectiveQuantity is what was applied; differs from RequestedQuantity when clamped
	EffectiveQuantity int
	Clamped           bool
	Warnings          []Warning
}

// Store is the in-memory cart of one session. Every mutation refreshes each line's
// tax breakdown and the snapshot before it returns, then publishes a cart event.
//
// A Store is not safe for concurrent use; callers serialise intents.
type Store struct {
	id        uuid.UUID
	engine    *tax.Engine
	stock     StockProvider
	publisher shared.EventPublisher

	originState      string
	buyerState       string
	shipping         ShippingMethod
	applyShippingTax bool
	shippingRate     *decimal.Decimal
	discount         decimal.Decimal

	items    []LineItem
	snapshot CartSnapshot
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithCartID fixes the cart id used as the event aggregate id
func WithCartID(id uuid.UUID) StoreOption {
	return func(s *Store) { s.id = id }
}

// WithStockProvider enables quantity clamping against available stock
func WithStockProvider(p StockProvider) StoreOption {
	return func(s *Store) { s.stock = p }
}

// WithEventPublisher sets where mutation events go
func WithEventPublisher(p shared.EventPublisher) StoreOption {
	return func(s *Store) { s.publisher = p }
}

// WithOriginState sets the seller state used for order-level jurisdiction.
// Without it the first line's seller state is used.
func WithOriginState(state string) StoreOption {
	return func(s *Store) { s.originState = tax.NormalizeState(state) }
}

// WithBuyerState sets the initial buyer state
func WithBuyerState(state string) StoreOption {
	return func(s *Store) { s.buyerState = tax.NormalizeState(state) }
}

// WithShippingTax taxes shipping at ratePercent. Zero is a valid rate; leave
// the option out to use the engine default.
func WithShippingTax(apply bool, ratePercent decimal.Decimal) StoreOption {
	return func(s *Store) {
		s.applyShippingTax = apply
		s.shippingRate = &ratePercent
	}
}

// NewStore creates an empty cart priced by engine
func NewStore(engine *tax.Engine, opts ...StoreOption) *Store {
	s := &Store{
		id:           uuid.New(),
		engine:       engine,
		shipping: ShippingMethod{Amount: decimal.Zero},
		discount: decimal.Zero,
		items:    make([]LineItem, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot = emptySnapshot()
	s.snapshot.BuyerState = s.buyerState
	s.snapshot.SellerState = s.originState
	return s
}

// ID returns the cart id
func (s *Store) ID() uuid.UUID {
	return s.id
}

// Len returns the number of lines
func (s *Store) Len() int {
	return len(s.items)
}

// Items returns a copy of the current lines
func (s *Store) Items() []LineItem {
	return slices.Clone(s.items)
}

// Snapshot returns the derived totals; the Items slice is a copy
func (s *Store) Snapshot() CartSnapshot {
	snap := s.snapshot
	snap.Items = slices.Clone(s.snapshot.Items)
	snap.UntaxedItems = slices.Clone(s.snapshot.UntaxedItems)
	return snap
}

// Find returns the line with the given item id
func (s *Store) Find(itemID uuid.UUID) (LineItem, bool) {
	if i := s.indexByID(itemID); i >= 0 {
		return s.items[i], true
	}
	return LineItem{}, false
}

// FindByProduct returns the line for a product from a seller
func (s *Store) FindByProduct(productID, sellerID string) (LineItem, bool) {
	if i := s.indexByKey(itemKey{productID: productID, sellerID: sellerID}); i >= 0 {
		return s.items[i], true
	}
	return LineItem{}, false
}

// ClampQuantity caps qty at the product's stock level. A stock lookup failure
// leaves qty unchanged and is reported as a warning.
func (s *Store) ClampQuantity(ctx context.Context, productID string, qty int) (int, bool, []Warning) {
	if s.stock == nil {
		return qty, false, nil
	}
	level, err := s.stock.GetStockLevel(ctx, productID)
	if err != nil {
		return qty, false, []Warning{{
			Code:    WarningStockUnavailable,
			Message: fmt.Sprintf("stock level for %s unavailable: %v", productID, err),
		}}
	}
	if qty <= level {
		return qty, false, nil
	}
	level = max(level, 0)
	return level, true, []Warning{{
		Code:    WarningQuantityClamped,
		Message: fmt.Sprintf("quantity for %s reduced from %d to %d (stock)", productID, qty, level),
	}}
}

// AddItem appends item, or merges it into the line with the same product and seller
func (s *Store) AddItem(ctx context.Context, item LineItem) (ItemChange, error) {
	if err := item.Validate(); err != nil {
		return ItemChange{}, err
	}
	item.SellerState = tax.NormalizeState(item.SellerState)

	idx := s.indexByKey(item.key())
	requested := item.Quantity
	if idx >= 0 {
		requested += s.items[idx].Quantity
	}
	effective, clamped, warnings := s.ClampQuantity(ctx, item.ProductID, requested)
	if effective < 1 {
		return ItemChange{}, fmt.Errorf("%w: %s", ErrOutOfStock, item.ProductID)
	}

	if idx >= 0 {
		s.items[idx].Quantity = effective
	} else {
		if item.ItemID == uuid.Nil || s.indexByID(item.ItemID) >= 0 {
			item.ItemID = uuid.New()
		}
		item.Quantity = effective
		item.Tax = tax.TaxBreakdown{}
		s.items = append(s.items, item)
		idx = len(s.items) - 1
	}

	warnings = append(warnings, s.recompute(ctx)...)
	changed := s.items[idx]
	s.publish(ctx, EventTypeItemAdded, changed.ItemID)

	return ItemChange{
		Item:              changed,
		RequestedQuantity: requested,
		EffectiveQuantity: effective,
		Clamped:           clamped,
		Warnings:          warnings,
	}, nil
}

// UpdateQuantity sets a line's quantity. qty <= 0 removes the line, and a quantity
// above stock is clamped; the applied value is in EffectiveQuantity.
func (s *Store) UpdateQuantity(ctx context.Context, itemID uuid.UUID, qty int) (ItemChange, error) {
	if qty <= 0 {
		change := s.RemoveItem(ctx, itemID)
		change.RequestedQuantity = qty
		return change, nil
	}
	idx := s.indexByID(itemID)
	if idx < 0 {
		return ItemChange{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	effective, clamped, warnings := s.ClampQuantity(ctx, s.items[idx].ProductID, qty)
	if effective < 1 {
		change := s.RemoveItem(ctx, itemID)
		change.RequestedQuantity = qty
		change.Clamped = true
		change.Warnings = append(warnings, change.Warnings...)
		return change, nil
	}

	s.items[idx].Quantity = effective
	warnings = append(warnings, s.recompute(ctx)...)
	changed := s.items[idx]
	s.publish(ctx, EventTypeQuantityUpdated, itemID)

	return ItemChange{
		Item:              changed,
		RequestedQuantity: qty,
		EffectiveQuantity: effective,
		Clamped:           clamped,
		Warnings:          warnings,
	}, nil
}

// RemoveItem deletes a line. Removing an unknown id is a no-op.
func (s *Store) RemoveItem(ctx context.Context, itemID uuid.UUID) ItemChange {
	idx := s.indexByID(itemID)
	if idx < 0 {
		return ItemChange{}
	}
	removed := s.items[idx]
	s.items = slices.Delete(s.items, idx, idx+1)

	warnings := s.recompute(ctx)
	s.publish(ctx, EventTypeItemRemoved, itemID)
	return ItemChange{Item: removed, Removed: true, Warnings: warnings}
}

// Clear removes every line; clearing an empty cart is a no-op
func (s *Store) Clear(ctx context.Context) {
	if len(s.items) == 0 {
		return
	}
	s.items = s.items[:0]
	s.recompute(ctx)
	s.publish(ctx, EventTypeCleared, uuid.Nil)
}

// Replace swaps in a new set of lines, typically the remote cart after a sync.
// Local item ids survive when a line matches by remote id or by product and seller.
// Lines with a quantity below 1 are dropped.
func (s *Store) Replace(ctx context.Context, items []LineItem) []Warning {
	byRemote := make(map[string]uuid.UUID, len(s.items))
	byKey := make(map[itemKey]uuid.UUID, len(s.items))
	for _, it := range s.items {
		if it.RemoteID != "" {
			byRemote[it.RemoteID] = it.ItemID
		}
		byKey[it.key()] = it.ItemID
	}

	next := make([]LineItem, 0, len(items))
	used := make(map[uuid.UUID]bool, len(items))
	for _, it := range items {
		if it.Quantity < 1 || it.ProductID == "" {
			continue
		}
		it.SellerState = tax.NormalizeState(it.SellerState)
		if id, ok := byRemote[it.RemoteID]; ok && it.RemoteID != "" && !used[id] {
			it.ItemID = id
		} else if id, ok := byKey[it.key()]; ok && !used[id] {
			it.ItemID = id
		} else if it.ItemID == uuid.Nil || used[it.ItemID] {
			it.ItemID = uuid.New()
		}
		used[it.ItemID] = true
		it.Tax = tax.TaxBreakdown{}
		next = append(next, it)
	}

	s.items = next
	warnings := s.recompute(ctx)
	s.publish(ctx, EventTypeReplaced, uuid.Nil)
	return warnings
}

// SetBuyerState changes the buyer jurisdiction and re-prices the cart
func (s *Store) SetBuyerState(ctx context.Context, state string) []Warning {
	s.buyerState = tax.NormalizeState(state)
	warnings := s.recompute(ctx)
	s.publish(ctx, EventTypePricingChanged, uuid.Nil)
	return warnings
}

// SetShipping changes the shipping method and re-prices the cart
func (s *Store) SetShipping(ctx context.Context, method ShippingMethod) ([]Warning, error) {
	if method.Amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	s.shipping = method
	warnings := s.recompute(ctx)
	s.publish(ctx, EventTypePricingChanged, uuid.Nil)
	return warnings, nil
}

// SetDiscount sets the order-level discount
func (s *Store) SetDiscount(ctx context.Context, amount decimal.Decimal) ([]Warning, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	s.discount = amount
	warnings := s.recompute(ctx)
	s.publish(ctx, EventTypePricingChanged, uuid.Nil)
	return warnings, nil
}

// BuyerState returns the current buyer jurisdiction
func (s *Store) BuyerState() string {
	return s.buyerState
}

// Shipping returns the selected shipping method
func (s *Store) Shipping() ShippingMethod {
	return s.shipping
}

// sellerState is the order-level seller jurisdiction
func (s *Store) sellerState() string {
	if s.originState != "" {
		return s.originState
	}
	if len(s.items) > 0 {
		return s.items[0].SellerState
	}
	return ""
}

// recompute refreshes every line's breakdown and rebuilds the snapshot
func (s *Store) recompute(ctx context.Context) []Warning {
	in := tax.OrderTaxInput{
		Items:               make([]tax.OrderLine, len(s.items)),
		BuyerState:          s.buyerState,
		SellerState:         s.sellerState(),
		ShippingAmount:      s.shipping.Amount,
		ApplyTaxToShipping:  s.applyShippingTax,
		ShippingRatePercent: s.shippingRate,
		DiscountAmount:      s.discount,
	}
	for i, it := range s.items {
		in.Items[i] = tax.OrderLine{
			UnitPrice:   it.UnitPrice,
			Quantity:    int64(it.Quantity),
			HSNCode:     it.HSNCode,
			IsInclusive: it.IsInclusive,
			SellerState: it.SellerState,
		}
	}
	res := s.engine.ComputeOrderTax(ctx, in)

	itemCount := 0
	for i := range s.items {
		s.items[i].Tax = res.Lines[i].Breakdown
		itemCount += s.items[i].Quantity
	}

	var warnings []Warning
	var untaxedItems []UntaxedItem
	for _, w := range res.Warnings {
		it := s.items[w.LineIndex]
		untaxedItems = append(untaxedItems, UntaxedItem{
			ItemID:    it.ItemID,
			ProductID: it.ProductID,
			HSNCode:   w.HSNCode,
			Reason:    w.Reason,
		})
		code := WarningTaxRateUnavailable
		switch {
		case w.NotFound:
			code = WarningTaxRateNotFound
		case w.Invalid:
			code = WarningTaxRateInvalid
		}
		warnings = append(warnings, Warning{Code: code, Message: w.Reason, ItemID: it.ItemID})
	}

	s.snapshot = CartSnapshot{
		Items:             slices.Clone(s.items),
		ItemCount:         itemCount,
		BuyerState:        in.BuyerState,
		SellerState:       in.SellerState,
		Shipping:          s.shipping,
		Subtotal:          res.Subtotal,
		TaxAmount:         res.TaxAmount,
		CGSTTotal:         res.CGSTTotal,
		SGSTTotal:         res.SGSTTotal,
		IGSTTotal:         res.IGSTTotal,
		ShippingAmount:    res.ShippingAmount,
		ShippingTaxAmount: res.ShippingTaxAmount,
		DiscountAmount:    res.DiscountAmount,
		GrandTotal:        res.GrandTotal,
		UntaxedItems:      untaxedItems,
	}
	return warnings
}

// publish emits a cart event carrying a copy of the lines. Publisher failures
// are the bus's to log; the mutation has already been applied.
func (s *Store) publish(ctx context.Context, eventType string, itemID uuid.UUID) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, NewCartChangedEvent(eventType, s.id, itemID, slices.Clone(s.items)))
}

func (s *Store) indexByID(itemID uuid.UUID) int {
	return slices.IndexFunc(s.items, func(it LineItem) bool { return it.ItemID == itemID })
}

func (s *Store) indexByKey(key itemKey) int {
	return slices.IndexFunc(s.items, func(it LineItem) bool { return it.key() == key })
}
