package cart

import "github.com/google/uuid"

// WarningCode classifies a non-fatal degradation reported to the caller
type WarningCode string

const (
	WarningTaxRateNotFound    WarningCode = "TAX_RATE_NOT_FOUND"
	WarningTaxRateInvalid     WarningCode = "TAX_RATE_INVALID"
	WarningTaxRateUnavailable WarningCode = "TAX_RATE_UNAVAILABLE"
	WarningQuantityClamped    WarningCode = "QUANTITY_CLAMPED"
	WarningStockUnavailable   WarningCode = "STOCK_UNAVAILABLE"
	WarningStorageFull        WarningCode = "STORAGE_FULL"
	WarningPartialSyncLoss    WarningCode = "PARTIAL_SYNC_LOSS"
)

// Warning is a recoverable condition surfaced alongside a successful mutation
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
	ItemID  uuid.UUID   `json:"item_id,omitempty"`
}

// HasWarning reports whether warnings contains the given code
func HasWarning(warnings []Warning, code WarningCode) bool {
	for _, w := range warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
