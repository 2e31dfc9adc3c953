package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/cartsync/internal/domain/shared"
	"github.com/storefront/cartsync/internal/domain/tax"
)

var testRates = map[string]decimal.Decimal{
	"6109": decimal.NewFromInt(18),
	"8517": decimal.NewFromInt(12),
	"4901": decimal.Zero,
}

func testEngine() *tax.Engine {
	return tax.NewEngine(tax.RateProviderFunc(func(_ context.Context, hsn string) (decimal.Decimal, error) {
		r, ok := testRates[hsn]
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: %q", tax.ErrTaxRateNotFound, hsn)
		}
		return r, nil
	}))
}

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

func shirt(qty int) LineItem {
	return LineItem{
		ProductID:   "p-shirt",
		Name:        "Cotton Shirt",
		UnitPrice:   decimal.NewFromInt(1000),
		Quantity:    qty,
		SellerID:    "s-1",
		SellerState: "MH",
		HSNCode:     "6109",
	}
}

func phone(qty int) LineItem {
	return LineItem{
		ProductID:   "p-phone",
		Name:        "Phone",
		UnitPrice:   decimal.NewFromInt(500),
		Quantity:    qty,
		SellerID:    "s-2",
		SellerState: "KA",
		HSNCode:     "8517",
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestStore_AddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns id and computes tax", func(t *testing.T) {
		s := NewStore(testEngine(), WithBuyerState("MH"))
		change, err := s.AddItem(ctx, shirt(2))
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, change.Item.ItemID)
		assert.Equal(t, 2, change.EffectiveQuantity)
		assert.False(t, change.Clamped)
		assert.True(t, dec("90").Equal(change.Item.Tax.CGST))
		assert.True(t, dec("90").Equal(change.Item.Tax.SGST))

		snap := s.Snapshot()
		assert.Equal(t, 2, snap.ItemCount)
		assert.True(t, dec("2000").Equal(snap.Subtotal))
		assert.True(t, dec("360").Equal(snap.TaxAmount))
		assert.True(t, dec("2360").Equal(snap.GrandTotal))
		assert.Equal(t, "MH", snap.SellerState)
	})

	t.Run("rejects invalid quantity", func(t *testing.T) {
		s := NewStore(testEngine())
		_, err := s.AddItem(ctx, shirt(0))
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		_, err = s.AddItem(ctx, shirt(-3))
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		assert.Zero(t, s.Len())
	})

	t.Run("rejects missing product id", func(t *testing.T) {
		s := NewStore(testEngine())
		item := shirt(1)
		item.ProductID = "  "
		_, err := s.AddItem(ctx, item)
		assert.ErrorIs(t, err, ErrInvalidItem)
	})

	t.Run("same product from another seller is a separate line", func(t *testing.T) {
		s := NewStore(testEngine())
		_, err := s.AddItem(ctx, shirt(1))
		require.NoError(t, err)
		other := shirt(1)
		other.SellerID = "s-9"
		_, err = s.AddItem(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, 2, s.Len())
	})
}

func TestStore_AddItem_MergesExistingLine(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct{ first, second int }{{1, 1}, {2, 5}, {7, 3}, {1, 99}} {
		t.Run(fmt.Sprintf("%d+%d", tc.first, tc.second), func(t *testing.T) {
			s := NewStore(testEngine())
			first, err := s.AddItem(ctx, shirt(tc.first))
			require.NoError(t, err)
			second, err := s.AddItem(ctx, shirt(tc.second))
			require.NoError(t, err)

			assert.Equal(t, 1, s.Len())
			assert.Equal(t, first.Item.ItemID, second.Item.ItemID)
			assert.Equal(t, tc.first+tc.second, second.Item.Quantity)
			assert.Equal(t, tc.first+tc.second, s.Snapshot().ItemCount)
		})
	}
}

func TestStore_RemoveItem_Idempotent(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	s := NewStore(testEngine(), WithEventPublisher(pub))

	a, err := s.AddItem(ctx, shirt(1))
	require.NoError(t, err)
	_, err = s.AddItem(ctx, phone(2))
	require.NoError(t, err)

	first := s.RemoveItem(ctx, a.Item.ItemID)
	assert.True(t, first.Removed)
	once := s.Snapshot()

	second := s.RemoveItem(ctx, a.Item.ItemID)
	assert.False(t, second.Removed)
	assert.Equal(t, once, s.Snapshot())

	s.RemoveItem(ctx, uuid.New())
	assert.Equal(t, once, s.Snapshot())
	assert.Equal(t, []string{EventTypeItemAdded, EventTypeItemAdded, EventTypeItemRemoved}, pub.types())
}

func TestStore_UpdateQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("clamps to stock and reports it", func(t *testing.T) {
		stock := StockProviderFunc(func(context.Context, string) (int, error) { return 3, nil })
		s := NewStore(testEngine(), WithStockProvider(stock))
		added, err := s.AddItem(ctx, shirt(1))
		require.NoError(t, err)

		change, err := s.UpdateQuantity(ctx, added.Item.ItemID, 10)
		require.NoError(t, err)
		assert.Equal(t, 10, change.RequestedQuantity)
		assert.Equal(t, 3, change.EffectiveQuantity)
		assert.True(t, change.Clamped)
		assert.True(t, HasWarning(change.Warnings, WarningQuantityClamped))
		assert.Equal(t, 3, change.Item.Quantity)
		assert.Equal(t, 3, s.Snapshot().ItemCount)
	})

	t.Run("zero removes the line", func(t *testing.T) {
		s := NewStore(testEngine())
		added, err := s.AddItem(ctx, shirt(4))
		require.NoError(t, err)

		change, err := s.UpdateQuantity(ctx, added.Item.ItemID, 0)
		require.NoError(t, err)
		assert.True(t, change.Removed)
		assert.Zero(t, s.Len())
		assert.True(t, s.Snapshot().GrandTotal.IsZero())
	})

	t.Run("unknown item with positive quantity", func(t *testing.T) {
		s := NewStore(testEngine())
		_, err := s.UpdateQuantity(ctx, uuid.New(), 2)
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("stock lookup failure leaves quantity unclamped", func(t *testing.T) {
		stock := StockProviderFunc(func(context.Context, string) (int, error) {
			return 0, errors.New("catalog offline")
		})
		s := NewStore(testEngine(), WithStockProvider(stock))
		added, err := s.AddItem(ctx, shirt(1))
		require.NoError(t, err)
		assert.True(t, HasWarning(added.Warnings, WarningStockUnavailable))

		change, err := s.UpdateQuantity(ctx, added.Item.ItemID, 6)
		require.NoError(t, err)
		assert.Equal(t, 6, change.EffectiveQuantity)
		assert.False(t, change.Clamped)
	})

	t.Run("add with no stock is rejected", func(t *testing.T) {
		stock := StockProviderFunc(func(context.Context, string) (int, error) { return 0, nil })
		s := NewStore(testEngine(), WithStockProvider(stock))
		_, err := s.AddItem(ctx, shirt(1))
		assert.ErrorIs(t, err, ErrOutOfStock)
		assert.Zero(t, s.Len())
	})
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	s := NewStore(testEngine(), WithEventPublisher(pub))
	_, err := s.AddItem(ctx, shirt(1))
	require.NoError(t, err)

	s.Clear(ctx)
	s.Clear(ctx)

	assert.Zero(t, s.Len())
	assert.True(t, s.Snapshot().IsEmpty())
	assert.Equal(t, []string{EventTypeItemAdded, EventTypeCleared}, pub.types())
}

func TestStore_Jurisdiction(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testEngine(), WithBuyerState("MH"))
	added, err := s.AddItem(ctx, shirt(1))
	require.NoError(t, err)
	assert.True(t, added.Item.Tax.IsIntraState())

	s.SetBuyerState(ctx, "ka")
	item, ok := s.Find(added.Item.ItemID)
	require.True(t, ok)
	assert.True(t, dec("180").Equal(item.Tax.IGST))
	assert.True(t, item.Tax.CGST.IsZero())

	snap := s.Snapshot()
	assert.Equal(t, "KA", snap.BuyerState)
	assert.True(t, dec("180").Equal(snap.IGSTTotal))
	assert.True(t, snap.CGSTTotal.IsZero())
}

func TestStore_OriginStateOverridesFirstSeller(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testEngine(), WithBuyerState("KA"), WithOriginState("ka"), WithShippingTax(true, dec("18")))
	_, err := s.AddItem(ctx, shirt(1))
	require.NoError(t, err)
	_, err = s.SetShipping(ctx, ShippingMethod{Code: "express", Amount: dec("100")})
	require.NoError(t, err)

	snap := s.Snapshot()
	// goods ship from MH, shipping is taxed at the order level from KA
	assert.True(t, dec("180").Equal(snap.IGSTTotal))
	assert.True(t, dec("18").Equal(snap.ShippingTaxAmount))
	assert.True(t, dec("1298").Equal(snap.GrandTotal))
	assert.Equal(t, "express", snap.Shipping.Code)
}

func TestStore_ShippingAndDiscount(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testEngine(), WithBuyerState("MH"), WithShippingTax(true, dec("18")))
	_, err := s.AddItem(ctx, shirt(1))
	require.NoError(t, err)

	_, err = s.SetShipping(ctx, ShippingMethod{Code: "standard", Amount: dec("50")})
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.True(t, dec("9").Equal(snap.ShippingTaxAmount))
	assert.True(t, dec("1239").Equal(snap.GrandTotal))

	_, err = s.SetDiscount(ctx, dec("39"))
	require.NoError(t, err)
	assert.True(t, dec("1200").Equal(s.Snapshot().GrandTotal))

	_, err = s.SetShipping(ctx, ShippingMethod{Amount: dec("-1")})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = s.SetDiscount(ctx, dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestStore_UnknownHSNIsUntaxed(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testEngine())
	item := shirt(2)
	item.HSNCode = "0000"

	change, err := s.AddItem(ctx, item)
	require.NoError(t, err)
	assert.True(t, HasWarning(change.Warnings, WarningTaxRateNotFound))
	assert.True(t, change.Item.Tax.IsZero())

	snap := s.Snapshot()
	require.Len(t, snap.UntaxedItems, 1)
	assert.Equal(t, change.Item.ItemID, snap.UntaxedItems[0].ItemID)
	assert.True(t, dec("2000").Equal(snap.GrandTotal))
}

func TestStore_RateWarningCodes(t *testing.T) {
	tests := []struct {
		name    string
		rateErr error
		rate    decimal.Decimal
		want    WarningCode
	}{
		{name: "missing rate", rateErr: fmt.Errorf("%w: %q", tax.ErrTaxRateNotFound, "6109"), want: WarningTaxRateNotFound},
		{name: "out of range rate", rate: dec("150"), want: WarningTaxRateInvalid},
		{name: "rate source down", rateErr: errors.New("rate service down"), want: WarningTaxRateUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := tax.NewEngine(tax.RateProviderFunc(func(context.Context, string) (decimal.Decimal, error) {
				return tt.rate, tt.rateErr
			}))
			s := NewStore(engine)
			change, err := s.AddItem(context.Background(), shirt(1))
			require.NoError(t, err)
			require.Len(t, change.Warnings, 1)
			assert.Equal(t, tt.want, change.Warnings[0].Code)
			assert.True(t, change.Item.Tax.IsZero())
		})
	}
}

func TestStore_Replace_PreservesItemIDs(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testEngine())
	a, err := s.AddItem(ctx, shirt(1))
	require.NoError(t, err)
	b, err := s.AddItem(ctx, phone(1))
	require.NoError(t, err)

	// first reload assigns remote ids, matched by product and seller
	remoteA := shirt(3)
	remoteA.RemoteID = "r-1"
	remoteB := phone(1)
	remoteB.RemoteID = "r-2"
	s.Replace(ctx, []LineItem{remoteA, remoteB})

	got, ok := s.FindByProduct("p-shirt", "s-1")
	require.True(t, ok)
	assert.Equal(t, a.Item.ItemID, got.ItemID)
	assert.Equal(t, 3, got.Quantity)

	// second reload matches by remote id; dropped lines disappear
	remoteB.Quantity = 4
	zero := shirt(0)
	s.Replace(ctx, []LineItem{remoteB, zero})
	require.Equal(t, 1, s.Len())
	got, ok = s.Find(b.Item.ItemID)
	require.True(t, ok)
	assert.Equal(t, "r-2", got.RemoteID)
	assert.Equal(t, 4, got.Quantity)
	assert.True(t, got.Tax.Valid())
}

func TestStore_EventsCarryItems(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	cartID := uuid.New()
	s := NewStore(testEngine(), WithCartID(cartID), WithEventPublisher(pub))

	added, err := s.AddItem(ctx, shirt(1))
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	evt, ok := pub.events[0].(*CartChangedEvent)
	require.True(t, ok)
	assert.Equal(t, cartID, evt.AggregateID())
	assert.Equal(t, AggregateTypeCart, evt.AggregateType())
	assert.Equal(t, added.Item.ItemID, evt.ItemID)
	require.Len(t, evt.Items, 1)
	assert.False(t, evt.Items[0].Tax.IsZero())
}

func TestSnapshot_IsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testEngine())
	_, err := s.AddItem(ctx, shirt(1))
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Items[0].Quantity = 50
	assert.Equal(t, 1, s.Items()[0].Quantity)
	assert.Equal(t, "1180.00 INR", s.Snapshot().GrandTotalMoney().String())
}

func TestRemoteSyncError(t *testing.T) {
	err := error(&RemoteSyncError{Op: OpAdd, ProductID: "p-1", Quantity: 2, Err: context.DeadlineExceeded})
	assert.ErrorIs(t, err, ErrRemoteSyncFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "op=add")
	assert.Contains(t, err.Error(), "product=p-1")

	var rse *RemoteSyncError
	require.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &rse)
	assert.Equal(t, OpAdd, rse.Op)
}

func TestPartialSyncLoss(t *testing.T) {
	cause := &RemoteSyncError{Op: OpAdd, ProductID: "p-b"}
	err := error(&PartialSyncLoss{Failed: []PushFailure{{Item: LineItem{ProductID: "p-b"}, Err: cause}}})
	assert.ErrorIs(t, err, ErrPartialSyncLoss)
	assert.ErrorIs(t, err, ErrRemoteSyncFailed)
	assert.Contains(t, err.Error(), "p-b")
}
