package cart

import (
	"context"
	"sync"

	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/domain/shared"
)

// localPersistHandler writes the cart to the local backend after every change
// made while the session is anonymous
type localPersistHandler struct {
	coordinator *Coordinator

	mu      sync.Mutex
	lastErr error
}

// EventTypes implements shared.EventHandler
func (h *localPersistHandler) EventTypes() []string {
	return cart.AllEventTypes
}

// Handle implements shared.EventHandler
func (h *localPersistHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*cart.CartChangedEvent)
	if !ok {
		return nil
	}
	if state, _ := h.coordinator.current(); state != StateAnonymous {
		return nil
	}
	err := h.coordinator.local.SaveCart(ctx, e.Items)
	h.mu.Lock()
	h.lastErr = err
	h.mu.Unlock()
	return err
}

func (h *localPersistHandler) reset() {
	h.mu.Lock()
	h.lastErr = nil
	h.mu.Unlock()
}

func (h *localPersistHandler) lastError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}
