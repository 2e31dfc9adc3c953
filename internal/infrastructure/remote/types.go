package remote

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a cart line as served by GET /cart and POST /cart/items
type CartItem struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	IsInclusive bool            `json:"is_inclusive"`
	Quantity    int             `json:"quantity"`
	SellerID    string          `json:"seller_id"`
	SellerState string          `json:"seller_state"`
	HSNCode     string          `json:"hsn_code"`
}

// Cart is the body of GET /cart
type Cart struct {
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// Product is the body of GET /catalog/products/:id
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	IsInclusive bool            `json:"is_inclusive"`
	HSNCode     string          `json:"hsn_code"`
	SellerID    string          `json:"seller_id"`
	SellerState string          `json:"seller_state"`
	Stock       int             `json:"stock"`
}

// StockLevel is the body of GET /catalog/products/:id/stock
type StockLevel struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

// TaxRate is the body of GET /catalog/hsn/:code/rate
type TaxRate struct {
	HSNCode     string          `json:"hsn_code"`
	RatePercent decimal.Decimal `json:"rate_percent"`
}

// Token is the body of POST /auth/token
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
