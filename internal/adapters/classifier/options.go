package classifier

import (
	"net/http"
	"time"
)

// Defaults.
const (
	DefaultBaseURL = "https://api.openai.com"
	DefaultModel   = "gpt-4o-mini"
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another OpenAI-compatible server.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithAPIKey sets the bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithModel selects the model name.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRequestTimeout sets the HTTP client timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}
