package storefront

import (
	"context"

	"github.com/storefront/cartsync/internal/domain/catalog"
)

// CatalogService answers stock and rate lookups
type CatalogService struct {
	products catalog.ProductRepository
	rates    catalog.RateRepository
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(products catalog.ProductRepository, rates catalog.RateRepository) *CatalogService {
	return &CatalogService{products: products, rates: rates}
}

// ListProducts returns the whole catalog
func (s *CatalogService) ListProducts(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	return out, nil
}

// GetProduct returns one product
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(p)
	return &resp, nil
}

func toProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		IsInclusive: p.IsInclusive,
		HSNCode:     p.HSNCode,
		SellerID:    p.SellerID,
		SellerState: p.SellerState,
		Stock:       max(p.Stock, 0),
	}
}

// GetStock returns a product's stock level
func (s *CatalogService) GetStock(ctx context.Context, productID string) (*StockResponse, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &StockResponse{ProductID: p.ID, Stock: max(p.Stock, 0)}, nil
}

// GetRate returns the GST rate of an HSN code
func (s *CatalogService) GetRate(ctx context.Context, code string) (*RateResponse, error) {
	r, err := s.rates.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return &RateResponse{HSNCode: r.Code, RatePercent: r.RatePercent}, nil
}
