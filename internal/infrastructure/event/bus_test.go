package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/domain/shared"
)

type recordingHandler struct {
	types []string
	seen  []string
	err   error
	panic bool
}

func (h *recordingHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	h.seen = append(h.seen, e.EventType())
	if h.panic {
		panic("boom")
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func cartEvent(eventType string) shared.DomainEvent {
	return cart.NewCartChangedEvent(eventType, uuid.New(), uuid.Nil, nil)
}

func TestInMemoryEventBus_Routing(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	added := &recordingHandler{types: []string{cart.EventTypeItemAdded}}
	all := &recordingHandler{}
	bus.Subscribe(added)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		cartEvent(cart.EventTypeItemAdded),
		cartEvent(cart.EventTypeCleared),
	))

	assert.Equal(t, []string{cart.EventTypeItemAdded}, added.seen)
	assert.Equal(t, []string{cart.EventTypeItemAdded, cart.EventTypeCleared}, all.seen)

	bus.Unsubscribe(added)
	require.NoError(t, bus.Publish(context.Background(), cartEvent(cart.EventTypeItemAdded)))
	assert.Len(t, added.seen, 1)
	assert.Len(t, all.seen, 3)
}

func TestInMemoryEventBus_FailingHandlersAreIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := &recordingHandler{err: errors.New("disk full")}
	panicking := &recordingHandler{panic: true}
	healthy := &recordingHandler{}
	bus.Subscribe(failing, cart.EventTypeReplaced)
	bus.Subscribe(panicking, cart.EventTypeReplaced)
	bus.Subscribe(healthy, cart.EventTypeReplaced)

	require.NoError(t, bus.Publish(context.Background(), cartEvent(cart.EventTypeReplaced)))
	assert.Len(t, healthy.seen, 1)
	assert.Equal(t, 2, logs.FilterMessage("event handler failed").Len())
}

func TestHandlerRegistry_Order(t *testing.T) {
	r := NewHandlerRegistry()
	a := &recordingHandler{types: []string{"a"}}
	b := &recordingHandler{types: []string{"b"}}
	w := &recordingHandler{types: []string{"w"}}
	r.Register(w)
	r.Register(a, "x")
	r.Register(b, "x", "y")

	assert.Equal(t, []shared.EventHandler{a, b, w}, r.Handlers("x"))
	assert.Equal(t, []shared.EventHandler{b, w}, r.Handlers("y"))
	assert.Equal(t, []shared.EventHandler{w}, r.Handlers("z"))

	r.Unregister(b)
	assert.Equal(t, []shared.EventHandler{w}, r.Handlers("y"))
}
