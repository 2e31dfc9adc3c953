package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/storefront/cartsync/internal/domain/cart"
)

// CartClient is the authoritative remote cart over the storefront HTTP API.
// Every failure, including transport errors and timeouts, is a *cart.RemoteSyncError.
type CartClient struct {
	*Client
}

// NewCartClient creates a remote cart client; a token is required for every call
func NewCartClient(baseURL, token string, opts ...Option) *CartClient {
	return &CartClient{Client: NewClient(baseURL, append(opts, WithToken(token))...)}
}

// LoadCart implements cart.RemoteStore
func (c *CartClient) LoadCart(ctx context.Context) ([]cart.LineItem, error) {
	var body Cart
	status, err := c.do(ctx, http.MethodGet, "/cart", true, nil, &body)
	if err != nil {
		return nil, &cart.RemoteSyncError{Op: cart.OpLoad, StatusCode: status, Err: err}
	}
	items := make([]cart.LineItem, 0, len(body.Items))
	for _, it := range body.Items {
		items = append(items, it.toLineItem())
	}
	return items, nil
}

// PushAdd implements cart.RemoteStore
func (c *CartClient) PushAdd(ctx context.Context, productID string, qty int) (string, error) {
	var item CartItem
	status, err := c.do(ctx, http.MethodPost, "/cart/items", true, addItemRequest{ProductID: productID, Quantity: qty}, &item)
	if err != nil {
		return "", &cart.RemoteSyncError{Op: cart.OpAdd, ProductID: productID, Quantity: qty, StatusCode: status, Err: err}
	}
	return item.ID, nil
}

// PushUpdateQty implements cart.RemoteStore
func (c *CartClient) PushUpdateQty(ctx context.Context, remoteID string, qty int) error {
	status, err := c.do(ctx, http.MethodPut, "/cart/items/"+url.PathEscape(remoteID), true, updateQuantityRequest{Quantity: qty}, nil)
	if err != nil {
		return &cart.RemoteSyncError{Op: cart.OpUpdateQty, RemoteID: remoteID, Quantity: qty, StatusCode: status, Err: err}
	}
	return nil
}

// PushRemove implements cart.RemoteStore
func (c *CartClient) PushRemove(ctx context.Context, remoteID string) error {
	status, err := c.do(ctx, http.MethodDelete, "/cart/items/"+url.PathEscape(remoteID), true, nil, nil)
	if err != nil {
		return &cart.RemoteSyncError{Op: cart.OpRemove, RemoteID: remoteID, StatusCode: status, Err: err}
	}
	return nil
}

// ClearRemote implements cart.RemoteStore
func (c *CartClient) ClearRemote(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodDelete, "/cart", true, nil, nil)
	if err != nil {
		return &cart.RemoteSyncError{Op: cart.OpClear, StatusCode: status, Err: err}
	}
	return nil
}

func (it CartItem) toLineItem() cart.LineItem {
	return cart.LineItem{
		RemoteID:    it.ID,
		ProductID:   it.ProductID,
		Name:        it.Name,
		UnitPrice:   it.UnitPrice,
		IsInclusive: it.IsInclusive,
		Quantity:    it.Quantity,
		SellerID:    it.SellerID,
		SellerState: it.SellerState,
		HSNCode:     it.HSNCode,
	}
}

var _ cart.RemoteStore = (*CartClient)(nil)
