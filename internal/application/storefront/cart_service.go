package storefront

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/domain/catalog"
	"github.com/storefront/cartsync/internal/domain/shared"
	"github.com/storefront/cartsync/internal/infrastructure/logger"
)

// CartService serves the authoritative per-user carts. Lines are keyed by product;
// quantities are capped at the product's stock.
type CartService struct {
	entries  cart.EntryRepository
	products catalog.ProductRepository
	logger   *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(entries cart.EntryRepository, products catalog.ProductRepository, log *zap.Logger) *CartService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartService{entries: entries, products: products, logger: log}
}

// GetCart returns a user's cart
func (s *CartService) GetCart(ctx context.Context, userID string) (*CartResponse, error) {
	entries, err := s.entries.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &CartResponse{Items: make([]CartItemResponse, 0, len(entries))}
	for _, e := range entries {
		p, err := s.products.FindByID(ctx, e.ProductID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				logger.Enrich(ctx, s.logger).Warn("cart entry references a missing product",
					zap.String("product_id", e.ProductID))
				continue
			}
			return nil, err
		}
		resp.Items = append(resp.Items, toItemResponse(e, p))
		if e.UpdatedAt.After(resp.UpdatedAt) {
			resp.UpdatedAt = e.UpdatedAt
		}
	}
	return resp, nil
}

// AddItem adds quantity units of a product, merging with the existing line
func (s *CartService) AddItem(ctx context.Context, userID string, req AddItemRequest) (*CartItemResponse, error) {
	if req.Quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	p, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if p.Stock < 1 {
		return nil, shared.ErrInsufficientStock
	}

	entry, err := s.entries.FindByProduct(ctx, userID, req.ProductID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		entry = &cart.Entry{UserID: userID, ProductID: req.ProductID}
	case err != nil:
		return nil, err
	}
	entry.Quantity = min(entry.Quantity+req.Quantity, p.Stock)
	if err := s.entries.Save(ctx, entry); err != nil {
		return nil, fmt.Errorf("save cart entry: %w", err)
	}
	item := toItemResponse(*entry, p)
	return &item, nil
}

// UpdateQuantity sets a line's quantity. A quantity of zero or below deletes the
// line and returns nil.
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, id uuid.UUID, qty int) (*CartItemResponse, error) {
	entry, err := s.entries.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if qty <= 0 {
		_, err := s.entries.Delete(ctx, userID, id)
		return nil, err
	}
	p, err := s.products.FindByID(ctx, entry.ProductID)
	if err != nil {
		return nil, err
	}
	entry.Quantity = min(qty, p.Stock)
	if entry.Quantity < 1 {
		_, err := s.entries.Delete(ctx, userID, id)
		return nil, err
	}
	if err := s.entries.Save(ctx, entry); err != nil {
		return nil, fmt.Errorf("save cart entry: %w", err)
	}
	item := toItemResponse(*entry, p)
	return &item, nil
}

// RemoveItem deletes a line; deleting a missing line succeeds
func (s *CartService) RemoveItem(ctx context.Context, userID string, id uuid.UUID) error {
	_, err := s.entries.Delete(ctx, userID, id)
	return err
}

// Clear empties a user's cart
func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.entries.DeleteAll(ctx, userID)
}

func toItemResponse(e cart.Entry, p *catalog.Product) CartItemResponse {
	return CartItemResponse{
		ID:          e.ID,
		ProductID:   e.ProductID,
		Name:        p.Name,
		UnitPrice:   p.Price,
		IsInclusive: p.IsInclusive,
		Quantity:    e.Quantity,
		SellerID:    p.SellerID,
		SellerState: p.SellerState,
		HSNCode:     p.HSNCode,
	}
}
