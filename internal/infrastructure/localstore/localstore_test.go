package localstore

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/domain/tax"
	"github.com/storefront/cartsync/internal/infrastructure/config"
)

func sampleItems() []cart.LineItem {
	return []cart.LineItem{
		{
			ItemID:      uuid.New(),
			RemoteID:    "r-7",
			ProductID:   "p-shirt",
			Name:        "Cotton Shirt",
			UnitPrice:   decimal.RequireFromString("999.50"),
			Quantity:    2,
			SellerID:    "s-1",
			SellerState: "MH",
			HSNCode:     "6109",
			Tax:         tax.Split(decimal.RequireFromString("999.50"), decimal.NewFromInt(18), false, true),
		},
		{
			ItemID:      uuid.New(),
			ProductID:   "p-book",
			Name:        "Atlas",
			UnitPrice:   decimal.NewFromInt(450),
			IsInclusive: true,
			Quantity:    1,
			SellerID:    "s-2",
			SellerState: "KA",
			HSNCode:     "4901",
		},
	}
}

func assertSameItems(t *testing.T, want, got []cart.LineItem) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ItemID, got[i].ItemID)
		assert.Equal(t, want[i].RemoteID, got[i].RemoteID)
		assert.Equal(t, want[i].ProductID, got[i].ProductID)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.Equal(t, want[i].IsInclusive, got[i].IsInclusive)
		assert.True(t, want[i].UnitPrice.Equal(got[i].UnitPrice))
		assert.True(t, want[i].Tax.CGST.Equal(got[i].Tax.CGST))
		assert.True(t, want[i].Tax.SGST.Equal(got[i].Tax.SGST))
	}
}

// exerciseBackend runs the contract every local backend must satisfy
func exerciseBackend(t *testing.T, store cart.LocalStore) {
	ctx := context.Background()

	items, err := store.LoadCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	want := sampleItems()
	require.NoError(t, store.SaveCart(ctx, want))
	got, err := store.LoadCart(ctx)
	require.NoError(t, err)
	assertSameItems(t, want, got)

	require.NoError(t, store.SaveCart(ctx, want[:1]))
	got, err = store.LoadCart(ctx)
	require.NoError(t, err)
	assertSameItems(t, want[:1], got)

	require.NoError(t, store.SaveCart(ctx, nil))
	got, err = store.LoadCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore(t *testing.T) {
	exerciseBackend(t, NewMemoryStore(0))
}

func TestSQLiteStore(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "local.db"), zap.NewNop())
	require.NoError(t, err)
	store := NewSQLiteStore(db, "device-1", 0)
	defer store.Close()

	exerciseBackend(t, store)
}

func TestSQLiteStore_KeysAreIsolated(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "local.db"), nil)
	require.NoError(t, err)

	a := NewSQLiteStore(db, "a", 0)
	b := NewSQLiteStore(db, "b", 0)
	require.NoError(t, a.SaveCart(ctx, sampleItems()))

	got, err := b.LoadCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQuotaSignalsStorageFull(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "local.db"), nil)
	require.NoError(t, err)

	for name, store := range map[string]cart.LocalStore{
		"memory": NewMemoryStore(64),
		"sqlite": NewSQLiteStore(db, "small", 64),
	} {
		t.Run(name, func(t *testing.T) {
			err := store.SaveCart(ctx, sampleItems())
			assert.ErrorIs(t, err, cart.ErrStorageFull)

			// the previous contents are untouched
			got, err := store.LoadCart(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestDecode_RejectsUnknownVersion(t *testing.T) {
	_, err := decode([]byte(`{"version":99,"items":[]}`))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "version 99"))
}

func TestFactory(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		b, err := NewFactory(config.SyncConfig{LocalBackend: "memory"}, config.RedisConfig{}).Create(ctx)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, b)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.SyncConfig{LocalBackend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "c.db"), LocalKey: "k"}
		b, err := NewFactory(cfg, config.RedisConfig{}).Create(ctx)
		require.NoError(t, err)
		defer b.Close()
		assert.IsType(t, &SQLiteStore{}, b)
	})

	t.Run("unreachable redis falls back to memory", func(t *testing.T) {
		redisCfg := config.RedisConfig{Host: "127.0.0.1", Port: 1}
		b, err := NewFactory(config.SyncConfig{LocalBackend: "redis"}, redisCfg).Create(ctx)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, b)
	})

	t.Run("unreachable redis without fallback", func(t *testing.T) {
		redisCfg := config.RedisConfig{Host: "127.0.0.1", Port: 1}
		_, err := NewFactory(config.SyncConfig{LocalBackend: "redis"}, redisCfg, WithMemoryFallback(false)).Create(ctx)
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewFactory(config.SyncConfig{LocalBackend: "floppy"}, config.RedisConfig{}).Create(ctx)
		assert.Error(t, err)
	})
}
