package remote

import (
	"context"
	"net/http"
)

// AuthClient obtains bearer tokens from the development login endpoint
type AuthClient struct {
	*Client
}

// NewAuthClient creates an auth client
func NewAuthClient(baseURL string, opts ...Option) *AuthClient {
	return &AuthClient{Client: NewClient(baseURL, opts...)}
}

// IssueToken requests a token for userID
func (c *AuthClient) IssueToken(ctx context.Context, userID string) (Token, error) {
	var tok Token
	_, err := c.do(ctx, http.MethodPost, "/auth/token", false, map[string]string{"user_id": userID}, &tok)
	return tok, err
}
