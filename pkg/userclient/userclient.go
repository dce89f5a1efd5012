// Package userclient reads staff accounts from the authn internal API.
package userclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/catering/pkg/web"
)

type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone,omitempty"`
	Department string `json:"department,omitempty"`
	Role       string `json:"role"`
	Status     string `json:"status"`
}

func (u User) Name() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Directory is the read side consumers depend on.
type Directory interface {
	ListByRole(ctx context.Context, role string) ([]User, error)
}

type Client struct {
	client *apt.ServiceClient
}

func New(baseURL string) *Client {
	return &Client{client: apt.NewServiceClient(baseURL)}
}

// FromConfig returns an error if services.authn.url is not configured.
func FromConfig(config *apt.Config) (*Client, error) {
	base, _ := config.GetString("services.authn.url")
	if base == "" {
		return nil, fmt.Errorf("services.authn.url is required")
	}
	return New(base), nil
}

// ListByRole lists the active users holding role.
func (c *Client) ListByRole(ctx context.Context, role string) ([]User, error) {
	q := url.Values{"role": {role}, "status": {"active"}}
	resp, err := c.client.Request(ctx, "GET", "/internal/users?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s users: %w", role, err)
	}
	var users []User
	if err := web.DecodeData(resp, &users); err != nil {
		return nil, fmt.Errorf("invalid users response: %w", err)
	}
	return users, nil
}

func (c *Client) Get(ctx context.Context, id string) (*User, error) {
	resp, err := c.client.Request(ctx, "GET", "/internal/users/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	var u User
	if err := web.DecodeData(resp, &u); err != nil {
		return nil, fmt.Errorf("invalid user response: %w", err)
	}
	return &u, nil
}
