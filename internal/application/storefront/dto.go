package storefront

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItemResponse is one line of a server cart, joined with its product
type CartItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	IsInclusive bool            `json:"is_inclusive"`
	Quantity    int             `json:"quantity"`
	SellerID    string          `json:"seller_id"`
	SellerState string          `json:"seller_state"`
	HSNCode     string          `json:"hsn_code"`
}

// CartResponse is the body of GET /cart
type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// AddItemRequest is the body of POST /cart/items
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required,max=64"`
	Quantity  int    `json:"quantity" binding:"required,gte=1"`
}

// UpdateQuantityRequest is the body of PUT /cart/items/:id. Zero or below removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// StockResponse is the body of GET /catalog/products/:id/stock
type StockResponse struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

// RateResponse is the body of GET /catalog/hsn/:code/rate
type RateResponse struct {
	HSNCode     string          `json:"hsn_code"`
	RatePercent decimal.Decimal `json:"rate_percent"`
}

// ProductResponse is one catalog entry
type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	IsInclusive bool            `json:"is_inclusive"`
	HSNCode     string          `json:"hsn_code"`
	SellerID    string          `json:"seller_id"`
	SellerState string          `json:"seller_state"`
	Stock       int             `json:"stock"`
}
