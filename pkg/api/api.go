package api

import (
	"github.com/go-resty/resty/v2"
	"github.com/pixelfolio/cli/pkg/client"
)

// Client issues typed calls against the backend through a resty client
type Client struct {
	http *resty.Client
}

// New wraps an already configured resty client
func New(c *resty.Client) *Client {
	return &Client{http: c}
}

// Default uses the process-wide client from pkg/client
func Default() *Client {
	return New(client.GetClient())
}

// HTTP exposes the underlying resty client
func (c *Client) HTTP() *resty.Client {
	return c.http
}
