package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storefront/cartsync/internal/application/storefront"
	"github.com/storefront/cartsync/internal/interfaces/http/dto"
)

// CartHandler serves the authenticated shopper's cart
type CartHandler struct {
	BaseHandler
	service *storefront.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(service *storefront.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes mounts the cart routes on an authenticated group
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cart", h.GetCart)
	rg.DELETE("/cart", h.Clear)
	rg.POST("/cart/items", h.AddItem)
	rg.PUT("/cart/items/:id", h.UpdateQuantity)
	rg.DELETE("/cart/items/:id", h.RemoveItem)
}

// GetCart returns the caller's cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	resp, err := h.service.GetCart(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddItem adds a product, merging with an existing line
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var req storefront.AddItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.service.AddItem(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// UpdateQuantity sets a line's quantity; zero or below removes it and answers 204
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, ok := h.itemID(c)
	if !ok {
		return
	}
	var req storefront.UpdateQuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.service.UpdateQuantity(c.Request.Context(), userID, id, *req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if item == nil {
		h.NoContent(c)
		return
	}
	h.Success(c, item)
}

// RemoveItem deletes a line
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, ok := h.itemID(c)
	if !ok {
		return
	}
	if err := h.service.RemoveItem(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Clear empties the cart
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	if err := h.service.Clear(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *CartHandler) itemID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidID, "Invalid cart item ID format")
		return uuid.Nil, false
	}
	return id, true
}
