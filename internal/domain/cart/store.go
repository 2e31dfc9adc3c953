package cart

import "context"

// StockProvider reports how many units of a product can be ordered
type StockProvider interface {
	GetStockLevel(ctx context.Context, productID string) (int, error)
}

// StockProviderFunc adapts a function to StockProvider
type StockProviderFunc func(ctx context.Context, productID string) (int, error)

// GetStockLevel implements StockProvider
func (f StockProviderFunc) GetStockLevel(ctx context.Context, productID string) (int, error) {
	return f(ctx, productID)
}

// LocalStore is the durable on-device cart used while the session is anonymous.
// SaveCart returns an error wrapping ErrStorageFull when the quota is exceeded.
type LocalStore interface {
	LoadCart(ctx context.Context) ([]LineItem, error)
	SaveCart(ctx context.Context, items []LineItem) error
}

// RemoteStore is the authoritative server cart reachable with a session credential.
// Every failure is a *RemoteSyncError.
type RemoteStore interface {
	LoadCart(ctx context.Context) ([]LineItem, error)
	// PushAdd adds qty units of a product and returns the remote line id
	PushAdd(ctx context.Context, productID string, qty int) (string, error)
	PushUpdateQty(ctx context.Context, remoteID string, qty int) error
	PushRemove(ctx context.Context, remoteID string) error
	ClearRemote(ctx context.Context) error
}
