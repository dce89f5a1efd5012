// Package mediaclient stores photos and signatures through the media service.
package mediaclient

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/catering/pkg/web"
)

const (
	KindPhoto     = "photo"
	KindSignature = "signature"
)

type Object struct {
	ID          string    `json:"id"`
	OwnerType   string    `json:"owner_type"`
	OwnerID     string    `json:"owner_id"`
	Kind        string    `json:"kind"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	Caption     string    `json:"caption,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadRequest carries base64 or data URL encoded bytes.
type UploadRequest struct {
	OwnerType   string   `json:"owner_type"`
	OwnerID     string   `json:"owner_id"`
	Kind        string   `json:"kind"`
	ContentType string   `json:"content_type,omitempty"`
	Caption     string   `json:"caption,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Data        string   `json:"data"`
}

// Uploader is what media consumers depend on.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (*Object, error)
}

type Client struct {
	client *apt.ServiceClient
}

func New(baseURL string) *Client {
	return &Client{client: apt.NewServiceClient(baseURL)}
}

func FromConfig(config *apt.Config) (*Client, error) {
	base, ok := config.GetString("services.media.url")
	if !ok || base == "" {
		return nil, fmt.Errorf("services.media.url is required")
	}
	return New(base), nil
}

func (c *Client) Upload(ctx context.Context, req UploadRequest) (*Object, error) {
	resp, err := c.client.Request(ctx, "POST", "/internal/media", req)
	if err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}
	var o Object
	if err := web.DecodeData(resp, &o); err != nil {
		return nil, fmt.Errorf("decode media: %w", err)
	}
	return &o, nil
}

func (c *Client) List(ctx context.Context, ownerType, ownerID string) ([]Object, error) {
	q := url.Values{"owner_type": {ownerType}, "owner_id": {ownerID}}
	resp, err := c.client.Request(ctx, "GET", "/internal/media?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	var list []Object
	if err := web.DecodeData(resp, &list); err != nil {
		return nil, fmt.Errorf("decode media: %w", err)
	}
	return list, nil
}
