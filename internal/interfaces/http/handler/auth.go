package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/storefront/cartsync/internal/infrastructure/auth"
)

// TokenIssuer issues bearer tokens
type TokenIssuer interface {
	Issue(userID string) (*auth.Token, error)
}

// AuthHandler serves the development login endpoint
type AuthHandler struct {
	BaseHandler
	issuer TokenIssuer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(issuer TokenIssuer) *AuthHandler {
	return &AuthHandler{issuer: issuer}
}

// TokenRequest is the body of POST /auth/token
type TokenRequest struct {
	UserID string `json:"user_id" binding:"required,max=64"`
}

// RegisterRoutes mounts the auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/token", h.IssueToken)
}

// IssueToken issues a token for any user id without checking credentials
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tok, err := h.issuer.Issue(req.UserID)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	h.Success(c, tok)
}
