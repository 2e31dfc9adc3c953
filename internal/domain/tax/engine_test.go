package tax

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/cartsync/internal/domain/shared/valueobject"
)

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s got %s", want, got)
}

func staticRates(rates map[string]string) RateProvider {
	return RateProviderFunc(func(_ context.Context, hsn string) (decimal.Decimal, error) {
		r, ok := rates[hsn]
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrTaxRateNotFound, hsn)
		}
		return dec(r), nil
	})
}

func newTestEngine(opts ...EngineOption) *Engine {
	return NewEngine(staticRates(map[string]string{
		"6109": "18",
		"8517": "12",
		"1006": "5",
		"4901": "0",
		"9999": "150",
	}), opts...)
}

func TestComputeLineTax_Scenarios(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	t.Run("intra-state splits into cgst and sgst", func(t *testing.T) {
		b, err := e.ComputeLineTax(ctx, dec("1000"), "6109", "MH", "MH", false)
		require.NoError(t, err)
		assertDec(t, "90.00", b.CGST)
		assertDec(t, "90.00", b.SGST)
		assertDec(t, "0", b.IGST)
		assertDec(t, "1180", b.PriceWithTax)
		assert.True(t, b.Valid())
	})

	t.Run("inter-state assigns igst", func(t *testing.T) {
		b, err := e.ComputeLineTax(ctx, dec("1000"), "6109", "KA", "MH", false)
		require.NoError(t, err)
		assertDec(t, "0", b.CGST)
		assertDec(t, "0", b.SGST)
		assertDec(t, "180.00", b.IGST)
		assert.True(t, b.Valid())
	})

	t.Run("state codes are normalised", func(t *testing.T) {
		b, err := e.ComputeLineTax(ctx, dec("1000"), "6109", " mh", "MH ", false)
		require.NoError(t, err)
		assertDec(t, "90", b.CGST)
	})

	t.Run("odd paisa goes to sgst", func(t *testing.T) {
		b, err := e.ComputeLineTax(ctx, dec("10.10"), "1006", "MH", "MH", false)
		require.NoError(t, err)
		assertDec(t, "0.25", b.CGST)
		assertDec(t, "0.26", b.SGST)
	})

	t.Run("inclusive price is back-calculated", func(t *testing.T) {
		b, err := e.ComputeLineTax(ctx, dec("1180"), "6109", "MH", "MH", true)
		require.NoError(t, err)
		assertDec(t, "1000", b.PriceExclTax)
		assertDec(t, "1180", b.PriceWithTax)
		assertDec(t, "90", b.CGST)
		assertDec(t, "90", b.SGST)
		assert.True(t, b.IsInclusive)
	})

	t.Run("inclusive price with uneven base", func(t *testing.T) {
		b, err := e.ComputeLineTax(ctx, dec("100"), "6109", "MH", "MH", true)
		require.NoError(t, err)
		assertDec(t, "84.75", b.PriceExclTax)
		assertDec(t, "7.63", b.CGST)
		assertDec(t, "7.62", b.SGST)
		assertDec(t, "100", b.PriceExclTax.Add(b.TotalTax()))
	})

	t.Run("zero rated goods carry no tax", func(t *testing.T) {
		b, err := e.ComputeLineTax(ctx, dec("250"), "4901", "MH", "KA", false)
		require.NoError(t, err)
		assert.True(t, b.IsZero())
		assert.True(t, b.Valid())
	})

	t.Run("single paisa tax is charged on both halves", func(t *testing.T) {
		b, err := e.ComputeLineTax(ctx, dec("0.05"), "6109", "MH", "MH", false)
		require.NoError(t, err)
		assertDec(t, "0.01", b.CGST)
		assertDec(t, "0.01", b.SGST)
		assert.True(t, b.Valid())
	})
}

func TestComputeLineTax_MissingRate(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	t.Run("unknown hsn is untaxed with a warning", func(t *testing.T) {
		b, err := e.ComputeLineTax(ctx, dec("499"), "0000", "MH", "MH", false)
		assert.ErrorIs(t, err, ErrTaxRateNotFound)
		assert.True(t, b.IsZero())
		assertDec(t, "0", b.RatePercent)
		assertDec(t, "499", b.PriceExclTax)
		assertDec(t, "499", b.PriceWithTax)
	})

	t.Run("empty hsn is untaxed", func(t *testing.T) {
		_, err := e.ComputeLineTax(ctx, dec("10"), "", "MH", "MH", false)
		assert.ErrorIs(t, err, ErrTaxRateNotFound)
	})

	t.Run("out of range rate is rejected", func(t *testing.T) {
		b, err := e.ComputeLineTax(ctx, dec("10"), "9999", "MH", "MH", false)
		assert.ErrorIs(t, err, ErrInvalidRate)
		assert.True(t, b.IsZero())
	})

	t.Run("nil provider never panics", func(t *testing.T) {
		b, err := NewEngine(nil).ComputeLineTax(ctx, dec("10"), "6109", "MH", "MH", true)
		assert.ErrorIs(t, err, ErrTaxRateNotFound)
		assertDec(t, "10", b.PriceWithTax)
	})
}

func TestUnknownStatePolicy(t *testing.T) {
	ctx := context.Background()

	intra := newTestEngine()
	b, err := intra.ComputeLineTax(ctx, dec("1000"), "6109", "", "MH", false)
	require.NoError(t, err)
	assert.True(t, b.IsIntraState())

	inter := newTestEngine(WithUnknownStatePolicy(UnknownStateInter))
	b, err = inter.ComputeLineTax(ctx, dec("1000"), "6109", "MH", "", false)
	require.NoError(t, err)
	assertDec(t, "180", b.IGST)

	ignored := newTestEngine(WithUnknownStatePolicy("bogus"))
	assert.Equal(t, UnknownStateIntra, ignored.Policy())
}

// randomPrice returns a price between 10.00 and 100000.00
func randomPrice(r *rand.Rand) decimal.Decimal {
	return decimal.New(1000+r.Int64N(9_999_000), -2)
}

// randomRate returns 0 or a rate in [0.25, 99.99] with two decimals
func randomRate(r *rand.Rand) decimal.Decimal {
	if r.IntN(10) == 0 {
		return decimal.Zero
	}
	return decimal.New(25+r.Int64N(9975), -2)
}

func TestSplit_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))
	standard := []decimal.Decimal{dec("0.25"), dec("3"), dec("5"), dec("12"), dec("18"), dec("28")}

	for i := 0; i < 5000; i++ {
		price := randomPrice(r)
		rate := randomRate(r)
		if i%2 == 0 {
			rate = standard[r.IntN(len(standard))]
		}
		inclusive := r.IntN(2) == 0
		intra := r.IntN(2) == 0

		b := Split(price, rate, inclusive, intra)
		label := fmt.Sprintf("price=%s rate=%s inclusive=%v intra=%v", price, rate, inclusive, intra)

		require.True(t, b.Valid(), "split invariant: %s -> %+v", label, b)
		if intra {
			assert.True(t, b.IGST.IsZero(), label)
		} else {
			assert.True(t, b.CGST.IsZero() && b.SGST.IsZero(), label)
		}

		expected := valueobject.RoundHalfUp(rate.Mul(b.PriceExclTax).Div(hundred))
		diff := b.TotalTax().Sub(expected).Abs()
		require.True(t, diff.LessThanOrEqual(valueobject.MinorUnit), "conservation: %s total=%s expected=%s", label, b.TotalTax(), expected)

		if inclusive {
			roundTrip := b.PriceExclTax.Add(b.TotalTax())
			require.True(t, roundTrip.Sub(price).Abs().LessThanOrEqual(valueobject.MinorUnit), "round trip: %s got %s", label, roundTrip)
			assert.True(t, b.PriceWithTax.Equal(price), label)
		}
	}
}

func TestSplit_SmallIntraStateAmounts(t *testing.T) {
	tests := []struct {
		name      string
		price     string
		rate      string
		inclusive bool
		cgst      string
		sgst      string
		exclTax   string
	}{
		{"inclusive paisa on a zero target is not charged", "0.34", "1.5", true, "0", "0", "0.34"},
		{"inclusive five paise at 12%", "0.05", "12", true, "0", "0", "0.05"},
		{"inclusive two paise at 40%", "0.02", "40", true, "0", "0", "0.02"},
		{"exclusive single paisa is charged on both halves", "0.05", "18", false, "0.01", "0.01", "0.05"},
		{"two paise are halved", "0.11", "18", false, "0.01", "0.01", "0.11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Split(dec(tt.price), dec(tt.rate), tt.inclusive, true)
			require.True(t, b.Valid(), "%+v", b)
			assertDec(t, tt.cgst, b.CGST)
			assertDec(t, tt.sgst, b.SGST)
			assertDec(t, tt.exclTax, b.PriceExclTax)
			if tt.inclusive {
				assertDec(t, tt.price, b.PriceWithTax)
				assertDec(t, tt.price, b.PriceExclTax.Add(b.TotalTax()))
			}
		})
	}
}

// sub-rupee and low prices are outside the random grid, so sweep them
func TestSplit_LowPriceSweep(t *testing.T) {
	rates := []string{"0.1", "0.25", "1", "1.5", "3", "5", "12", "18", "28", "40", "99.99"}
	for _, r := range rates {
		rate := dec(r)
		for paise := int64(1); paise <= 2000; paise++ {
			price := decimal.New(paise, -2)
			for _, inclusive := range []bool{true, false} {
				for _, intra := range []bool{true, false} {
					b := Split(price, rate, inclusive, intra)
					label := fmt.Sprintf("price=%s rate=%s inclusive=%v intra=%v", price, rate, inclusive, intra)
					require.True(t, b.Valid(), "split invariant: %s -> %+v", label, b)

					expected := valueobject.RoundHalfUp(rate.Mul(b.PriceExclTax).Div(hundred))
					diff := b.TotalTax().Sub(expected).Abs()
					require.True(t, diff.LessThanOrEqual(valueobject.MinorUnit), "conservation: %s total=%s expected=%s", label, b.TotalTax(), expected)
					if inclusive {
						roundTrip := b.PriceExclTax.Add(b.TotalTax())
						require.True(t, roundTrip.Sub(price).Abs().LessThanOrEqual(valueobject.MinorUnit), "round trip: %s got %s", label, roundTrip)
					}
				}
			}
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	a := Split(dec("12345.67"), dec("18"), true, true)
	b := Split(dec("12345.67"), dec("18"), true, true)
	assert.Equal(t, a, b)
}

func TestComputeOrderTax(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	t.Run("sums lines and taxes shipping at order level", func(t *testing.T) {
		res := e.ComputeOrderTax(ctx, OrderTaxInput{
			Items: []OrderLine{
				{UnitPrice: dec("1000"), Quantity: 2, HSNCode: "6109"},
				{UnitPrice: dec("500"), Quantity: 1, HSNCode: "8517", SellerState: "KA"},
			},
			BuyerState:         "MH",
			SellerState:        "MH",
			ShippingAmount:     dec("100"),
			ApplyTaxToShipping: true,
		})

		require.Len(t, res.Lines, 2)
		assertDec(t, "2500", res.Subtotal)
		assertDec(t, "180", res.CGSTTotal)
		assertDec(t, "180", res.SGSTTotal)
		assertDec(t, "60", res.IGSTTotal)
		assertDec(t, "420", res.TaxAmount)
		assertDec(t, "9", res.ShippingTax.CGST)
		assertDec(t, "9", res.ShippingTax.SGST)
		assertDec(t, "18", res.ShippingTaxAmount)
		assertDec(t, "3038", res.GrandTotal)
		assert.Empty(t, res.Warnings)
	})

	t.Run("shipping untaxed when flag is off", func(t *testing.T) {
		res := e.ComputeOrderTax(ctx, OrderTaxInput{
			Items:          []OrderLine{{UnitPrice: dec("100"), Quantity: 1, HSNCode: "6109"}},
			BuyerState:     "MH",
			SellerState:    "KA",
			ShippingAmount: dec("40"),
		})
		assertDec(t, "0", res.ShippingTaxAmount)
		assertDec(t, "18", res.IGSTTotal)
		assertDec(t, "158", res.GrandTotal)
	})

	t.Run("missing rate is reported, not fatal", func(t *testing.T) {
		res := e.ComputeOrderTax(ctx, OrderTaxInput{
			Items: []OrderLine{
				{UnitPrice: dec("100"), Quantity: 3, HSNCode: "0000"},
				{UnitPrice: dec("100"), Quantity: 1, HSNCode: "6109"},
			},
			BuyerState:  "MH",
			SellerState: "MH",
		})
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, 0, res.Warnings[0].LineIndex)
		assert.True(t, res.Warnings[0].NotFound)
		assert.True(t, res.Lines[0].Untaxed)
		assertDec(t, "400", res.Subtotal)
		assertDec(t, "18", res.TaxAmount)
	})

	t.Run("discount never drives total negative", func(t *testing.T) {
		res := e.ComputeOrderTax(ctx, OrderTaxInput{
			Items:          []OrderLine{{UnitPrice: dec("10"), Quantity: 1, HSNCode: "4901"}},
			DiscountAmount: dec("50"),
		})
		assertDec(t, "0", res.GrandTotal)
	})

	t.Run("custom shipping rate", func(t *testing.T) {
		res := e.ComputeOrderTax(ctx, OrderTaxInput{
			BuyerState:          "MH",
			SellerState:         "GJ",
			ShippingAmount:      dec("200"),
			ApplyTaxToShipping:  true,
			ShippingRatePercent: ptr(dec("5")),
		})
		assertDec(t, "10", res.ShippingTax.IGST)
		assertDec(t, "210", res.GrandTotal)
	})

	t.Run("zero shipping rate is not replaced by the default", func(t *testing.T) {
		res := e.ComputeOrderTax(ctx, OrderTaxInput{
			BuyerState:          "MH",
			SellerState:         "GJ",
			ShippingAmount:      dec("200"),
			ApplyTaxToShipping:  true,
			ShippingRatePercent: ptr(decimal.Zero),
		})
		assert.True(t, res.ShippingTax.IsZero())
		assertDec(t, "0", res.ShippingTaxAmount)
		assertDec(t, "200", res.GrandTotal)
	})

	t.Run("unset shipping rate uses the default", func(t *testing.T) {
		res := e.ComputeOrderTax(ctx, OrderTaxInput{
			BuyerState:         "MH",
			SellerState:        "GJ",
			ShippingAmount:     dec("200"),
			ApplyTaxToShipping: true,
		})
		assertDec(t, "36", res.ShippingTax.IGST)
	})
}

func TestRateProviderFunc_PropagatesErrors(t *testing.T) {
	boom := errors.New("rate service down")
	e := NewEngine(RateProviderFunc(func(context.Context, string) (decimal.Decimal, error) {
		return decimal.Zero, boom
	}))
	res := e.ComputeOrderTax(context.Background(), OrderTaxInput{
		Items: []OrderLine{{UnitPrice: dec("10"), Quantity: 1, HSNCode: "6109"}},
	})
	require.Len(t, res.Warnings, 1)
	assert.False(t, res.Warnings[0].NotFound)
	assert.False(t, res.Warnings[0].Invalid)
	assert.Contains(t, res.Warnings[0].Reason, "rate service down")
}
