package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/cartsync/internal/domain/catalog"
	"github.com/storefront/cartsync/internal/domain/shared"
	"github.com/storefront/cartsync/internal/domain/tax"
	"github.com/storefront/cartsync/internal/infrastructure/persistence/models"
)

// GormRateRepository stores HSN rates and serves them to the tax engine
type GormRateRepository struct {
	db *gorm.DB
}

// NewGormRateRepository creates a new GormRateRepository
func NewGormRateRepository(db *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: db}
}

// FindByCode finds the rate of an HSN code
func (r *GormRateRepository) FindByCode(ctx context.Context, code string) (*catalog.HSNRate, error) {
	var m models.HSNRateModel
	err := r.db.WithContext(ctx).First(&m, "code = ?", strings.ToUpper(strings.TrimSpace(code))).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// Save upserts a rate
func (r *GormRateRepository) Save(ctx context.Context, rate *catalog.HSNRate) error {
	rate.Code = strings.ToUpper(strings.TrimSpace(rate.Code))
	rate.UpdatedAt = time.Now()
	m := models.HSNRateModel{Code: rate.Code, RatePercent: rate.RatePercent, UpdatedAt: rate.UpdatedAt}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate_percent", "updated_at"}),
	}).Create(&m).Error
}

// GetTaxRate implements tax.RateProvider
func (r *GormRateRepository) GetTaxRate(ctx context.Context, hsnCode string) (decimal.Decimal, error) {
	rate, err := r.FindByCode(ctx, hsnCode)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("%w: %q", tax.ErrTaxRateNotFound, hsnCode)
		}
		return decimal.Zero, err
	}
	return rate.RatePercent, nil
}

var (
	_ catalog.RateRepository = (*GormRateRepository)(nil)
	_ tax.RateProvider       = (*GormRateRepository)(nil)
)
