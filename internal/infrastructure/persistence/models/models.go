// Package models contains the GORM row types of the server database.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/domain/catalog"
)

// All returns every model for migration
func All() []any {
	return []any{&ProductModel{}, &HSNRateModel{}, &CartEntryModel{}}
}

// ProductModel is the persistence model for catalog.Product
type ProductModel struct {
	ID          string          `gorm:"primaryKey;size:64"`
	Name        string          `gorm:"size:200;not null"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IsInclusive bool            `gorm:"not null;default:false"`
	HSNCode     string          `gorm:"size:16;index"`
	SellerID    string          `gorm:"size:64;not null"`
	SellerState string          `gorm:"size:8"`
	Stock       int             `gorm:"not null;default:0"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model to a domain product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		ID:          m.ID,
		Name:        m.Name,
		Price:       m.Price,
		IsInclusive: m.IsInclusive,
		HSNCode:     m.HSNCode,
		SellerID:    m.SellerID,
		SellerState: m.SellerState,
		Stock:       m.Stock,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ProductModelFromDomain converts a domain product to its model
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	return &ProductModel{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		IsInclusive: p.IsInclusive,
		HSNCode:     p.HSNCode,
		SellerID:    p.SellerID,
		SellerState: p.SellerState,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// HSNRateModel is the persistence model for catalog.HSNRate
type HSNRateModel struct {
	Code        string          `gorm:"primaryKey;size:16"`
	RatePercent decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (HSNRateModel) TableName() string {
	return "hsn_rates"
}

// ToDomain converts the model to a domain rate
func (m *HSNRateModel) ToDomain() *catalog.HSNRate {
	return &catalog.HSNRate{Code: m.Code, RatePercent: m.RatePercent, UpdatedAt: m.UpdatedAt}
}

// CartEntryModel is the persistence model for cart.Entry
type CartEntryModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_cart_entries_user_product"`
	ProductID string    `gorm:"size:64;not null;uniqueIndex:idx_cart_entries_user_product"`
	Quantity  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartEntryModel) TableName() string {
	return "cart_entries"
}

// ToDomain converts the model to a domain entry
func (m *CartEntryModel) ToDomain() cart.Entry {
	return cart.Entry{
		ID:        m.ID,
		UserID:    m.UserID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// CartEntryModelFromDomain converts a domain entry to its model
func CartEntryModelFromDomain(e *cart.Entry) *CartEntryModel {
	return &CartEntryModel{
		ID:        e.ID,
		UserID:    e.UserID,
		ProductID: e.ProductID,
		Quantity:  e.Quantity,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
