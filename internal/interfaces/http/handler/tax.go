package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/storefront/cartsync/internal/application/storefront"
	"github.com/storefront/cartsync/internal/domain/tax"
)

// TaxHandler runs order tax calculations
type TaxHandler struct {
	BaseHandler
	service *storefront.TaxService
}

// NewTaxHandler creates a new TaxHandler
func NewTaxHandler(service *storefront.TaxService) *TaxHandler {
	return &TaxHandler{service: service}
}

// RegisterRoutes mounts the tax routes
func (h *TaxHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/tax/calculate-order-tax", h.CalculateOrderTax)
}

// CalculateOrderTax computes the GST breakdown of an order. Lines whose rate
// cannot be resolved come back untaxed with a warning rather than failing the call.
func (h *TaxHandler) CalculateOrderTax(c *gin.Context) {
	var req tax.OrderTaxInput
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.CalculateOrderTax(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
