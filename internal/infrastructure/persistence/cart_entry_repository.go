package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/domain/shared"
	"github.com/storefront/cartsync/internal/infrastructure/persistence/models"
)

// GormCartEntryRepository implements cart.EntryRepository using GORM
type GormCartEntryRepository struct {
	db *gorm.DB
}

// NewGormCartEntryRepository creates a new GormCartEntryRepository
func NewGormCartEntryRepository(db *gorm.DB) *GormCartEntryRepository {
	return &GormCartEntryRepository{db: db}
}

// ListByUser returns a user's entries in insertion order
func (r *GormCartEntryRepository) ListByUser(ctx context.Context, userID string) ([]cart.Entry, error) {
	var rows []models.CartEntryModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]cart.Entry, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// FindByID finds one of a user's entries
func (r *GormCartEntryRepository) FindByID(ctx context.Context, userID string, id uuid.UUID) (*cart.Entry, error) {
	return r.first(ctx, "user_id = ? AND id = ?", userID, id)
}

// FindByProduct finds the user's entry for a product
func (r *GormCartEntryRepository) FindByProduct(ctx context.Context, userID, productID string) (*cart.Entry, error) {
	return r.first(ctx, "user_id = ? AND product_id = ?", userID, productID)
}

func (r *GormCartEntryRepository) first(ctx context.Context, query string, args ...any) (*cart.Entry, error) {
	var m models.CartEntryModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	e := m.ToDomain()
	return &e, nil
}

// Save inserts or updates an entry, assigning an id to new ones
func (r *GormCartEntryRepository) Save(ctx context.Context, e *cart.Entry) error {
	now := time.Now()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	return r.db.WithContext(ctx).Save(models.CartEntryModelFromDomain(e)).Error
}

// Delete removes one entry
func (r *GormCartEntryRepository) Delete(ctx context.Context, userID string, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&models.CartEntryModel{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteAll empties a user's cart
func (r *GormCartEntryRepository) DeleteAll(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartEntryModel{}).Error
}

var _ cart.EntryRepository = (*GormCartEntryRepository)(nil)
