package client

import (
	"context"
	"net/http"
)

// User is the authenticated identity a token resolves to.
type User struct {
	Login  string `json:"login"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Active bool   `json:"active"`
}

// CurrentUser resolves the identity behind the configured token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&user).
		Get("api/v2/users/me")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &user, nil
}

// ValidateToken checks a candidate token against the API without touching
// the client's configured credentials. Used right after login, before the
// token is persisted.
func (c *Client) ValidateToken(ctx context.Context, token string) (*User, error) {
	var user User
	resp, err := c.rc.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&user).
		Get("api/v2/users/me")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: "token rejected by server"}
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &user, nil
}
