package cart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidQuantity is returned when an add intent carries a quantity below 1
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
	// ErrInvalidItem is returned when a line item lacks a product id
	ErrInvalidItem = errors.New("cart: product id is required")
	// ErrOutOfStock is returned when a new item has no stock at all
	ErrOutOfStock = errors.New("cart: product is out of stock")
	// ErrInvalidAmount is returned for a negative shipping or discount amount
	ErrInvalidAmount = errors.New("cart: amount cannot be negative")
	// ErrItemNotFound is returned when an item id is not in the cart
	ErrItemNotFound = errors.New("cart: item not found")
	// ErrStorageFull signals the local backend quota was exceeded.
	// Non-fatal: the cart keeps working in memory but will not survive a reload.
	ErrStorageFull = errors.New("cart: local storage quota exceeded")
	// ErrRemoteSyncFailed is the class of every remote backend failure, timeouts included
	ErrRemoteSyncFailed = errors.New("cart: remote sync failed")
	// ErrInvalidTransition is returned for a session change not allowed in the current state
	ErrInvalidTransition = errors.New("cart: invalid session transition")
	// ErrPartialSyncLoss is the class of a login merge in which some pushes failed
	ErrPartialSyncLoss = errors.New("cart: some local items failed to sync")
)

// SyncOp names a remote backend operation
type SyncOp string

const (
	OpLoad      SyncOp = "load"
	OpAdd       SyncOp = "add"
	OpUpdateQty SyncOp = "update_qty"
	OpRemove    SyncOp = "remove"
	OpClear     SyncOp = "clear"
)

// RemoteSyncError carries the failed operation payload so the caller can retry it
type RemoteSyncError struct {
	Op         SyncOp
	ItemID     uuid.UUID
	ProductID  string
	RemoteID   string
	Quantity   int
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *RemoteSyncError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: op=%s", ErrRemoteSyncFailed, e.Op)
	if e.ProductID != "" {
		fmt.Fprintf(&b, " product=%s", e.ProductID)
	}
	if e.RemoteID != "" {
		fmt.Fprintf(&b, " remote_id=%s", e.RemoteID)
	}
	if e.Quantity != 0 {
		fmt.Fprintf(&b, " qty=%d", e.Quantity)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " status=%d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the failure class and the underlying cause
func (e *RemoteSyncError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRemoteSyncFailed}
	}
	return []error{ErrRemoteSyncFailed, e.Err}
}

// PushFailure is one local item that could not be pushed during a login merge
type PushFailure struct {
	Item LineItem
	Err  error
}

// PartialSyncLoss lists the local items dropped by a login merge
type PartialSyncLoss struct {
	Failed []PushFailure
}

// Error implements the error interface
func (e *PartialSyncLoss) Error() string {
	return fmt.Sprintf("%s: %d item(s) dropped [%s]", ErrPartialSyncLoss, len(e.Failed), strings.Join(e.ProductIDs(), ", "))
}

// Unwrap exposes the failure class and each push error
func (e *PartialSyncLoss) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed)+1)
	errs = append(errs, ErrPartialSyncLoss)
	for _, f := range e.Failed {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// ProductIDs returns the product ids of the failed pushes in order
func (e *PartialSyncLoss) ProductIDs() []string {
	ids := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		ids[i] = f.Item.ProductID
	}
	return ids
}
