package ratetable

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/cartsync/internal/domain/tax"
)

func TestStatic(t *testing.T) {
	s := NewStatic(map[string]decimal.Decimal{" 6109 ": decimal.NewFromInt(5), "ab12": decimal.NewFromInt(12)})
	ctx := context.Background()

	rate, err := s.GetTaxRate(ctx, "6109")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(rate))

	rate, err = s.GetTaxRate(ctx, "AB12")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(12).Equal(rate))

	_, err = s.GetTaxRate(ctx, "9999")
	assert.ErrorIs(t, err, tax.ErrTaxRateNotFound)

	s.Set("9999", decimal.NewFromInt(28))
	assert.Equal(t, 3, s.Len())

	rates := s.Rates()
	delete(rates, "9999")
	assert.Equal(t, 3, s.Len())
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	primary := NewStatic(map[string]decimal.Decimal{"6109": decimal.NewFromInt(5)})
	fallback := NewStatic(map[string]decimal.Decimal{"6109": decimal.NewFromInt(12), "8471": decimal.NewFromInt(18)})

	t.Run("first hit wins", func(t *testing.T) {
		rate, err := Chain{primary, fallback}.GetTaxRate(ctx, "6109")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(5).Equal(rate))
	})

	t.Run("falls through on not found", func(t *testing.T) {
		rate, err := Chain{nil, primary, fallback}.GetTaxRate(ctx, "8471")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(18).Equal(rate))
	})

	t.Run("all miss", func(t *testing.T) {
		_, err := Chain{primary}.GetTaxRate(ctx, "0000")
		assert.ErrorIs(t, err, tax.ErrTaxRateNotFound)
	})

	t.Run("hard failure stops", func(t *testing.T) {
		boom := errors.New("db down")
		broken := tax.RateProviderFunc(func(context.Context, string) (decimal.Decimal, error) {
			return decimal.Zero, boom
		})
		_, err := Chain{broken, fallback}.GetTaxRate(ctx, "8471")
		assert.ErrorIs(t, err, boom)
	})
}
