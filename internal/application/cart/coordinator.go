package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/domain/shared"
	"github.com/storefront/cartsync/internal/domain/tax"
)

// DefaultRemoteTimeout bounds each remote call when no timeout is configured
const DefaultRemoteTimeout = 10 * time.Second

// Coordinator owns the session's CartStore and decides where each mutation goes.
//
// Anonymous sessions mutate the store and persist it locally through the event bus.
// Authenticated sessions write to the remote cart first and then reload it, so the
// store only ever holds what the remote accepted. Intents run one at a time in
// submission order.
type Coordinator struct {
	store    *cart.Store
	local    cart.LocalStore
	bus      shared.EventBus
	persist  *localPersistHandler
	timeout  time.Duration
	logger   *zap.Logger
	metrics  MetricsRecorder
	validate *validator.Validate

	queue intentQueue

	mu       sync.RWMutex
	state    SessionState
	remote   cart.RemoteStore
	snapshot cart.CartSnapshot
}

// Option configures a Coordinator
type Option func(*coordinatorOptions)

type coordinatorOptions struct {
	timeout   time.Duration
	logger    *zap.Logger
	metrics   MetricsRecorder
	storeOpts []cart.StoreOption
}

// WithRemoteTimeout bounds every remote call
func WithRemoteTimeout(d time.Duration) Option {
	return func(o *coordinatorOptions) { o.timeout = d }
}

// WithLogger sets the coordinator logger
func WithLogger(l *zap.Logger) Option {
	return func(o *coordinatorOptions) { o.logger = l }
}

// WithMetrics records intents, merges and degradations
func WithMetrics(r MetricsRecorder) Option {
	return func(o *coordinatorOptions) {
		if r != nil {
			o.metrics = r
		}
	}
}

// WithStoreOptions passes options to the underlying cart.Store
func WithStoreOptions(opts ...cart.StoreOption) Option {
	return func(o *coordinatorOptions) { o.storeOpts = append(o.storeOpts, opts...) }
}

// NewCoordinator creates an anonymous coordinator. Store events are published on
// bus, where the coordinator also subscribes its local persistence handler.
func NewCoordinator(engine *tax.Engine, local cart.LocalStore, bus shared.EventBus, opts ...Option) *Coordinator {
	o := coordinatorOptions{timeout: DefaultRemoteTimeout, logger: zap.NewNop(), metrics: nopMetrics{}}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Coordinator{
		local:    local,
		bus:      bus,
		timeout:  o.timeout,
		logger:   o.logger.With(zap.String("component", "cart_sync")),
		metrics:  o.metrics,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		state:    StateAnonymous,
	}
	c.persist = &localPersistHandler{coordinator: c}
	bus.Subscribe(c.persist, cart.AllEventTypes...)

	storeOpts := append([]cart.StoreOption{cart.WithEventPublisher(bus)}, o.storeOpts...)
	c.store = cart.NewStore(engine, storeOpts...)
	c.snapshot = c.store.Snapshot()
	return c
}

// Close detaches the coordinator from the event bus
func (c *Coordinator) Close() {
	c.bus.Unsubscribe(c.persist)
}

// State returns the current session state
func (c *Coordinator) State() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Snapshot returns the snapshot as of the last completed intent
func (c *Coordinator) Snapshot() cart.CartSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// CartID returns the id of the session cart
func (c *Coordinator) CartID() uuid.UUID {
	return c.store.ID()
}

func (c *Coordinator) setState(s SessionState, remote cart.RemoteStore) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.remote = remote
	c.mu.Unlock()
	if prev != s {
		c.logger.Info("cart session state changed",
			zap.String("from", string(prev)),
			zap.String("to", string(s)))
	}
}

func (c *Coordinator) current() (SessionState, cart.RemoteStore) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.remote
}

// run executes fn as the next intent in line and refreshes the cached snapshot.
// The returned snapshot is taken before the next queued intent starts.
func (c *Coordinator) run(ctx context.Context, intent string, fn func() error) (cart.CartSnapshot, error) {
	if err := c.queue.acquire(ctx); err != nil {
		return c.Snapshot(), err
	}
	defer c.queue.release()
	start := time.Now()
	mode, _ := c.current()
	c.persist.reset()
	err := fn()
	snap := c.store.Snapshot()
	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()
	c.metrics.IntentCompleted(ctx, intent, string(mode), err, time.Since(start))
	return snap, err
}

// Start seeds the store from the local backend
func (c *Coordinator) Start(ctx context.Context) ([]cart.Warning, error) {
	var warnings []cart.Warning
	_, err := c.run(ctx, "start", func() error {
		items, err := c.local.LoadCart(ctx)
		if err != nil {
			c.logger.Warn("local cart load failed, starting empty", zap.Error(err))
			return fmt.Errorf("load local cart: %w", err)
		}
		warnings = c.logWarnings(ctx, c.store.Replace(ctx, items))
		c.logger.Info("cart seeded from local store", zap.Int("items", len(items)))
		return nil
	})
	return warnings, err
}

// AddItem adds units of a product, merging with an existing line
func (c *Coordinator) AddItem(ctx context.Context, in AddItemInput) (MutationResult, error) {
	if err := c.validateAdd(in); err != nil {
		return MutationResult{}, err
	}
	var res MutationResult
	snap, err := c.run(ctx, "add_item", func() error {
		var err error
		state, remote := c.current()
		if state == StateAuthenticated {
			res, err = c.remoteAdd(ctx, remote, in)
		} else {
			var change cart.ItemChange
			change, err = c.store.AddItem(ctx, in.lineItem())
			res = c.localResult(ctx, change)
		}
		return err
	})
	res.Snapshot = snap
	return res, err
}

// UpdateQuantity sets a line's quantity; qty <= 0 removes the line
func (c *Coordinator) UpdateQuantity(ctx context.Context, itemID uuid.UUID, qty int) (MutationResult, error) {
	var res MutationResult
	snap, err := c.run(ctx, "update_quantity", func() error {
		var err error
		state, remote := c.current()
		if state == StateAuthenticated {
			res, err = c.remoteUpdate(ctx, remote, itemID, qty)
		} else {
			var change cart.ItemChange
			change, err = c.store.UpdateQuantity(ctx, itemID, qty)
			res = c.localResult(ctx, change)
		}
		return err
	})
	res.Snapshot = snap
	return res, err
}

// RemoveItem deletes a line; an unknown id is a no-op
func (c *Coordinator) RemoveItem(ctx context.Context, itemID uuid.UUID) (MutationResult, error) {
	var res MutationResult
	snap, err := c.run(ctx, "remove_item", func() error {
		var err error
		state, remote := c.current()
		if state == StateAuthenticated {
			res, err = c.remoteRemove(ctx, remote, itemID)
		} else {
			res = c.localResult(ctx, c.store.RemoveItem(ctx, itemID))
		}
		return err
	})
	res.Snapshot = snap
	return res, err
}

// Clear empties the cart
func (c *Coordinator) Clear(ctx context.Context) (MutationResult, error) {
	var res MutationResult
	snap, err := c.run(ctx, "clear", func() error {
		state, remote := c.current()
		if state != StateAuthenticated {
			c.store.Clear(ctx)
			res.Warnings = c.storageWarnings(ctx, nil)
			return nil
		}
		rctx, cancel := c.remoteContext(ctx)
		defer cancel()
		if err := remote.ClearRemote(rctx); err != nil {
			return c.remoteFailed(ctx, cart.OpClear, err, &cart.RemoteSyncError{Op: cart.OpClear})
		}
		warnings, err := c.reload(ctx, remote)
		res.Warnings = warnings
		return err
	})
	res.Snapshot = snap
	return res, err
}

// Refresh reloads the authoritative remote cart; anonymous sessions are unaffected
func (c *Coordinator) Refresh(ctx context.Context) (cart.CartSnapshot, error) {
	snap, err := c.run(ctx, "refresh", func() error {
		state, remote := c.current()
		if state != StateAuthenticated {
			return nil
		}
		_, err := c.reload(ctx, remote)
		return err
	})
	return snap, err
}

// SetBuyerState changes the buyer jurisdiction and re-prices the cart
func (c *Coordinator) SetBuyerState(ctx context.Context, state string) (MutationResult, error) {
	var res MutationResult
	snap, err := c.run(ctx, "set_buyer_state", func() error {
		res.Warnings = c.storageWarnings(ctx, c.logWarnings(ctx, c.store.SetBuyerState(ctx, state)))
		return nil
	})
	res.Snapshot = snap
	return res, err
}

// SetShipping selects a shipping method
func (c *Coordinator) SetShipping(ctx context.Context, method cart.ShippingMethod) (MutationResult, error) {
	var res MutationResult
	snap, err := c.run(ctx, "set_shipping", func() error {
		warnings, err := c.store.SetShipping(ctx, method)
		res.Warnings = c.storageWarnings(ctx, c.logWarnings(ctx, warnings))
		return err
	})
	res.Snapshot = snap
	return res, err
}

// SetDiscount sets the order-level discount
func (c *Coordinator) SetDiscount(ctx context.Context, amount decimal.Decimal) (MutationResult, error) {
	var res MutationResult
	snap, err := c.run(ctx, "set_discount", func() error {
		warnings, err := c.store.SetDiscount(ctx, amount)
		res.Warnings = c.storageWarnings(ctx, c.logWarnings(ctx, warnings))
		return err
	})
	res.Snapshot = snap
	return res, err
}

// Login merges the local cart into remote and switches to authenticated mode.
//
// Each local line is pushed in turn. Lines that fail are reported in the returned
// *cart.PartialSyncLoss while the merge carries on. The store is then replaced by
// the remote cart and the local cart is emptied. If that final reload fails, the
// session stays anonymous with only the unpushed lines kept locally, and a
// *cart.RemoteSyncError is returned.
func (c *Coordinator) Login(ctx context.Context, remote cart.RemoteStore) (SyncReport, error) {
	if remote == nil {
		return SyncReport{}, fmt.Errorf("%w: no remote store", cart.ErrInvalidTransition)
	}
	var report SyncReport
	snap, err := c.run(ctx, "login", func() error {
		if state, _ := c.current(); state != StateAnonymous {
			return fmt.Errorf("%w: login while %s", cart.ErrInvalidTransition, state)
		}
		c.setState(StateSyncing, nil)

		for _, item := range c.store.Items() {
			rctx, cancel := c.remoteContext(ctx)
			_, err := remote.PushAdd(rctx, item.ProductID, item.Quantity)
			cancel()
			if err != nil {
				err = c.remoteFailed(ctx, cart.OpAdd, err, &cart.RemoteSyncError{
					Op: cart.OpAdd, ItemID: item.ItemID, ProductID: item.ProductID, Quantity: item.Quantity,
				})
				report.Failed = append(report.Failed, cart.PushFailure{Item: item, Err: err})
				continue
			}
			report.Pushed = append(report.Pushed, item)
		}

		c.metrics.LoginMerged(ctx, len(report.Pushed), len(report.Failed))

		warnings, err := c.reload(ctx, remote)
		if err != nil {
			c.abortLogin(ctx, report)
			return err
		}
		report.Warnings = warnings

		if err := c.local.SaveCart(ctx, nil); err != nil {
			c.logger.Warn("failed to empty local cart after merge", zap.Error(err))
		}
		c.setState(StateAuthenticated, remote)

		if len(report.Failed) > 0 {
			loss := &cart.PartialSyncLoss{Failed: report.Failed}
			report.Warnings = append(report.Warnings, cart.Warning{
				Code:    cart.WarningPartialSyncLoss,
				Message: loss.Error(),
			})
			c.logger.Warn("login merge dropped local items",
				zap.Strings("product_ids", loss.ProductIDs()),
				zap.Int("pushed", len(report.Pushed)))
			return loss
		}
		c.logger.Info("login merge complete", zap.Int("pushed", len(report.Pushed)))
		return nil
	})
	report.Snapshot = snap
	return report, err
}

// abortLogin returns to anonymous mode after a failed authoritative reload. Lines
// already pushed now live remotely, so only the unpushed ones stay local.
func (c *Coordinator) abortLogin(ctx context.Context, report SyncReport) {
	remaining := make([]cart.LineItem, 0, len(report.Failed))
	for _, f := range report.Failed {
		remaining = append(remaining, f.Item)
	}
	c.setState(StateAnonymous, nil)
	c.store.Replace(ctx, remaining)
	c.logger.Warn("login merge aborted, remote reload failed",
		zap.Int("pushed", len(report.Pushed)),
		zap.Int("kept_locally", len(remaining)))
}

// Logout returns to anonymous mode and reseeds the store from the local backend.
// The remote cart is left as it is.
func (c *Coordinator) Logout(ctx context.Context) ([]cart.Warning, error) {
	var warnings []cart.Warning
	_, err := c.run(ctx, "logout", func() error {
		if state, _ := c.current(); state == StateAnonymous {
			return nil
		}
		items, err := c.local.LoadCart(ctx)
		if err != nil {
			c.logger.Warn("local cart load failed on logout", zap.Error(err))
			items = nil
		}
		// replaced before the switch so the local cart is not rewritten
		warnings = c.logWarnings(ctx, c.store.Replace(ctx, items))
		c.setState(StateAnonymous, nil)
		if err != nil {
			return fmt.Errorf("load local cart: %w", err)
		}
		return nil
	})
	return warnings, err
}

func (c *Coordinator) validateAdd(in AddItemInput) error {
	if err := c.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				switch fe.Field() {
				case "Quantity":
					return fmt.Errorf("%w: got %d", cart.ErrInvalidQuantity, in.Quantity)
				case "ProductID":
					return cart.ErrInvalidItem
				}
			}
		}
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if in.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price %s", cart.ErrInvalidAmount, in.UnitPrice)
	}
	return nil
}

func (c *Coordinator) localResult(ctx context.Context, change cart.ItemChange) MutationResult {
	return MutationResult{
		Item:              change.Item,
		Removed:           change.Removed,
		EffectiveQuantity: change.EffectiveQuantity,
		Clamped:           change.Clamped,
		Warnings:          c.storageWarnings(ctx, c.logWarnings(ctx, change.Warnings)),
	}
}

// storageWarnings appends a StorageFull warning when the last local save hit the quota
func (c *Coordinator) storageWarnings(ctx context.Context, warnings []cart.Warning) []cart.Warning {
	if err := c.persist.lastError(); err != nil && errors.Is(err, cart.ErrStorageFull) {
		c.logger.Warn("local cart not persisted, keeping it in memory only", zap.Error(err))
		c.metrics.WarningRaised(ctx, string(cart.WarningStorageFull))
		warnings = append(warnings, cart.Warning{
			Code:    cart.WarningStorageFull,
			Message: "cart is kept in memory only and will not survive a reload",
		})
	}
	return warnings
}

func (c *Coordinator) logWarnings(ctx context.Context, warnings []cart.Warning) []cart.Warning {
	for _, w := range warnings {
		c.metrics.WarningRaised(ctx, string(w.Code))
		switch w.Code {
		case cart.WarningTaxRateNotFound, cart.WarningTaxRateInvalid, cart.WarningTaxRateUnavailable:
			c.logger.Warn("line priced without tax",
				zap.String("code", string(w.Code)),
				zap.Stringer("item_id", w.ItemID),
				zap.String("reason", w.Message))
		case cart.WarningStockUnavailable:
			c.logger.Warn("stock lookup failed", zap.String("reason", w.Message))
		}
	}
	return warnings
}

func (c *Coordinator) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// remoteFailed logs a remote failure and makes sure it is a *cart.RemoteSyncError
func (c *Coordinator) remoteFailed(ctx context.Context, op cart.SyncOp, err error, payload *cart.RemoteSyncError) error {
	var rse *cart.RemoteSyncError
	if errors.As(err, &rse) {
		if rse.ItemID == uuid.Nil {
			rse.ItemID = payload.ItemID
		}
	} else {
		payload.Err = err
		err = payload
	}
	c.logger.Warn("remote cart operation failed", zap.String("op", string(op)), zap.Error(err))
	c.metrics.RemoteFailure(ctx, string(op))
	return err
}

// reload replaces the store with the remote cart
func (c *Coordinator) reload(ctx context.Context, remote cart.RemoteStore) ([]cart.Warning, error) {
	rctx, cancel := c.remoteContext(ctx)
	defer cancel()
	items, err := remote.LoadCart(rctx)
	if err != nil {
		return nil, c.remoteFailed(ctx, cart.OpLoad, err, &cart.RemoteSyncError{Op: cart.OpLoad})
	}
	return c.logWarnings(ctx, c.store.Replace(ctx, items)), nil
}

func (c *Coordinator) remoteAdd(ctx context.Context, remote cart.RemoteStore, in AddItemInput) (MutationResult, error) {
	existing, found := c.store.FindByProduct(in.ProductID, in.SellerID)
	requested := in.Quantity
	if found {
		requested += existing.Quantity
	}
	effective, clamped, warnings := c.store.ClampQuantity(ctx, in.ProductID, requested)
	if effective < 1 {
		return MutationResult{}, fmt.Errorf("%w: %s", cart.ErrOutOfStock, in.ProductID)
	}
	delta := effective - existing.Quantity
	if delta <= 0 {
		return MutationResult{
			Item:              existing,
			EffectiveQuantity: existing.Quantity,
			Clamped:           clamped,
			Warnings:          c.logWarnings(ctx, warnings),
		}, nil
	}

	rctx, cancel := c.remoteContext(ctx)
	remoteID, err := remote.PushAdd(rctx, in.ProductID, delta)
	cancel()
	if err != nil {
		return MutationResult{}, c.remoteFailed(ctx, cart.OpAdd, err, &cart.RemoteSyncError{
			Op: cart.OpAdd, ItemID: existing.ItemID, ProductID: in.ProductID, Quantity: delta,
		})
	}
	reloadWarnings, err := c.reload(ctx, remote)
	if err != nil {
		return MutationResult{}, err
	}

	item, _ := c.findRemote(remoteID, in.ProductID, in.SellerID)
	return MutationResult{
		Item:              item,
		EffectiveQuantity: item.Quantity,
		Clamped:           clamped,
		Warnings:          append(c.logWarnings(ctx, warnings), reloadWarnings...),
	}, nil
}

func (c *Coordinator) remoteUpdate(ctx context.Context, remote cart.RemoteStore, itemID uuid.UUID, qty int) (MutationResult, error) {
	if qty <= 0 {
		return c.remoteRemove(ctx, remote, itemID)
	}
	item, ok := c.store.Find(itemID)
	if !ok {
		return MutationResult{}, fmt.Errorf("%w: %s", cart.ErrItemNotFound, itemID)
	}
	effective, clamped, warnings := c.store.ClampQuantity(ctx, item.ProductID, qty)
	if effective < 1 {
		res, err := c.remoteRemove(ctx, remote, itemID)
		res.Clamped = true
		res.Warnings = append(c.logWarnings(ctx, warnings), res.Warnings...)
		return res, err
	}
	if !item.IsSynced() {
		return MutationResult{}, c.remoteFailed(ctx, cart.OpUpdateQty, errors.New("item has no remote id"), &cart.RemoteSyncError{
			Op: cart.OpUpdateQty, ItemID: itemID, ProductID: item.ProductID, Quantity: effective,
		})
	}

	rctx, cancel := c.remoteContext(ctx)
	err := remote.PushUpdateQty(rctx, item.RemoteID, effective)
	cancel()
	if err != nil {
		return MutationResult{}, c.remoteFailed(ctx, cart.OpUpdateQty, err, &cart.RemoteSyncError{
			Op: cart.OpUpdateQty, ItemID: itemID, ProductID: item.ProductID, RemoteID: item.RemoteID, Quantity: effective,
		})
	}
	reloadWarnings, err := c.reload(ctx, remote)
	if err != nil {
		return MutationResult{}, err
	}

	updated, _ := c.store.Find(itemID)
	return MutationResult{
		Item:              updated,
		EffectiveQuantity: updated.Quantity,
		Clamped:           clamped,
		Warnings:          append(c.logWarnings(ctx, warnings), reloadWarnings...),
	}, nil
}

func (c *Coordinator) remoteRemove(ctx context.Context, remote cart.RemoteStore, itemID uuid.UUID) (MutationResult, error) {
	item, ok := c.store.Find(itemID)
	if !ok {
		return MutationResult{}, nil
	}
	if item.IsSynced() {
		rctx, cancel := c.remoteContext(ctx)
		err := remote.PushRemove(rctx, item.RemoteID)
		cancel()
		if err != nil {
			return MutationResult{}, c.remoteFailed(ctx, cart.OpRemove, err, &cart.RemoteSyncError{
				Op: cart.OpRemove, ItemID: itemID, ProductID: item.ProductID, RemoteID: item.RemoteID,
			})
		}
	}
	warnings, err := c.reload(ctx, remote)
	if err != nil {
		return MutationResult{}, err
	}
	return MutationResult{Item: item, Removed: true, Warnings: warnings}, nil
}

// findRemote locates a line after a reload, by remote id first
func (c *Coordinator) findRemote(remoteID, productID, sellerID string) (cart.LineItem, bool) {
	if remoteID != "" {
		for _, it := range c.store.Items() {
			if it.RemoteID == remoteID {
				return it, true
			}
		}
	}
	return c.store.FindByProduct(productID, sellerID)
}
