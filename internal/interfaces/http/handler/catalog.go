package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/storefront/cartsync/internal/application/storefront"
)

// CatalogHandler exposes the product catalog and the HSN rate table
type CatalogHandler struct {
	BaseHandler
	service *storefront.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(service *storefront.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes mounts the public catalog routes
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/catalog/products", h.ListProducts)
	rg.GET("/catalog/products/:id", h.GetProduct)
	rg.GET("/catalog/products/:id/stock", h.GetStock)
	rg.GET("/catalog/hsn/:code/rate", h.GetRate)
}

// ListProducts returns every product
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// GetProduct returns one product
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.service.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// GetStock returns a product's stock level
func (h *CatalogHandler) GetStock(c *gin.Context) {
	stock, err := h.service.GetStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stock)
}

// GetRate returns the GST rate for an HSN code
func (h *CatalogHandler) GetRate(c *gin.Context) {
	rate, err := h.service.GetRate(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rate)
}
