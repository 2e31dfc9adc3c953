package dto

import "net/http"

// Error codes returned in the response envelope, grouped by category
const (
	// Request errors
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidID       = "ERR_INVALID_ID"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"

	// Auth errors
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeForbidden    = "ERR_FORBIDDEN"

	// Resource errors
	ErrCodeNotFound = "ERR_NOT_FOUND"
	ErrCodeConflict = "ERR_CONFLICT"

	// Business rule errors
	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeInvalidQuantity   = "ERR_INVALID_QUANTITY"
	ErrCodeInvalidPrice      = "ERR_INVALID_PRICE"
	ErrCodeInvalidAmount     = "ERR_INVALID_AMOUNT"
	ErrCodeInvalidProduct    = "ERR_INVALID_PRODUCT"
	ErrCodeInvalidStock      = "ERR_INVALID_STOCK"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"

	// Server errors
	ErrCodeInternal    = "ERR_INTERNAL"
	ErrCodeUnavailable = "ERR_SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidID:       http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeInvalidQuantity:   http.StatusUnprocessableEntity,
	ErrCodeInvalidPrice:      http.StatusUnprocessableEntity,
	ErrCodeInvalidAmount:     http.StatusUnprocessableEntity,
	ErrCodeInvalidProduct:    http.StatusUnprocessableEntity,
	ErrCodeInvalidStock:      http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,

	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":          ErrCodeNotFound,
	"INVALID_INPUT":      ErrCodeInvalidInput,
	"INVALID_STATE":      ErrCodeInvalidState,
	"UNAUTHORIZED":       ErrCodeUnauthorized,
	"INVALID_QUANTITY":   ErrCodeInvalidQuantity,
	"INVALID_PRICE":      ErrCodeInvalidPrice,
	"INVALID_AMOUNT":     ErrCodeInvalidAmount,
	"INVALID_PRODUCT":    ErrCodeInvalidProduct,
	"INVALID_STOCK":      ErrCodeInvalidStock,
	"INSUFFICIENT_STOCK": ErrCodeInsufficientStock,
}

// NormalizeErrorCode converts a domain error code to its API form.
// Unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
