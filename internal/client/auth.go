package client

import (
	"context"
	"net/http"

	"property-listing/internal/domain"
	"property-listing/internal/identity"
)

var _ identity.Authenticator = (*Client)(nil)

func (c *Client) Login(ctx context.Context, email, password string) (*identity.Credentials, error) {
	var out identity.Credentials
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, email, password, displayName string) (*identity.Credentials, error) {
	var out identity.Credentials
	in := map[string]string{"email": email, "password": password, "displayName": displayName}
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodGet, "/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
