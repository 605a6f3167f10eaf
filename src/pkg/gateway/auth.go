package gateway

import (
	"context"
	"net/http"
	"time"
)

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Account is the authenticated user as reported by the server.
type Account struct {
	ID      string    `json:"id"`
	Email   string    `json:"email"`
	Created time.Time `json:"createdAt"`
}

// Register creates an account and returns a session for it.
func (c *Client) Register(ctx context.Context, email, password string) (*Credential, error) {
	return c.authenticate(ctx, "/auth/register", email, password)
}

// Login exchanges email and password for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*Credential, error) {
	return c.authenticate(ctx, "/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*Credential, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, nil, authRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &Credential{UserID: resp.ID, Email: resp.Email, Token: resp.Token}, nil
}

// Logout ends the session on the server.
func (c *Client) Logout(ctx context.Context, cred *Credential) error {
	if cred == nil {
		return ErrNoCredential
	}
	return c.do(ctx, http.MethodPost, "/auth/logout", cred, nil, nil)
}

// Me returns the account behind cred. It is how a restored session is checked.
func (c *Client) Me(ctx context.Context, cred *Credential) (*Account, error) {
	if cred == nil {
		return nil, ErrNoCredential
	}
	var acct Account
	if err := c.do(ctx, http.MethodGet, "/auth/me", cred, nil, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}
