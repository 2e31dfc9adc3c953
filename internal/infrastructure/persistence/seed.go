package persistence

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/cartsync/internal/domain/catalog"
	"github.com/storefront/cartsync/internal/infrastructure/config"
)

// Seed loads the configured catalog into an empty products table and upserts the
// configured HSN rates. It is safe to run on every start.
func Seed(ctx context.Context, products catalog.ProductRepository, rates catalog.RateRepository,
	catalogCfg config.CatalogConfig, rateTable map[string]decimal.Decimal, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	for code, rate := range rateTable {
		if err := rates.Save(ctx, &catalog.HSNRate{Code: code, RatePercent: rate}); err != nil {
			return fmt.Errorf("seed rate %s: %w", code, err)
		}
	}

	n, err := products.Count(ctx)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		log.Debug("catalog already seeded", zap.Int64("products", n))
		return nil
	}

	for _, ps := range catalogCfg.Products {
		price, err := decimal.NewFromString(ps.Price)
		if err != nil {
			return fmt.Errorf("seed product %s: invalid price %q: %w", ps.ID, ps.Price, err)
		}
		p := &catalog.Product{
			ID:          ps.ID,
			Name:        ps.Name,
			Price:       price,
			IsInclusive: ps.Inclusive,
			HSNCode:     ps.HSNCode,
			SellerID:    ps.SellerID,
			SellerState: ps.SellerState,
			Stock:       ps.Stock,
		}
		if err := products.Save(ctx, p); err != nil {
			return fmt.Errorf("seed product %s: %w", ps.ID, err)
		}
	}
	log.Info("catalog seeded",
		zap.Int("products", len(catalogCfg.Products)),
		zap.Int("rates", len(rateTable)))
	return nil
}
