// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ipinfo

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// DefaultURL is the default public IP lookup endpoint.
const DefaultURL = "https://api.ipify.org?format=json"

const lookupTimeout = 3 * time.Second

// Client fetches the caller's public IP from an external lookup service.
type Client struct {
	url    string
	client *http.Client
}

func NewClient(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:    url,
		client: &http.Client{Timeout: lookupTimeout},
	}
}

// PublicIP returns the public IP, or "" when the lookup fails for any
// reason. Lookup failure must never abort the surrounding operation, so
// errors are logged at debug level and swallowed.
func (c *Client) PublicIP(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		slog.Debug("ip lookup request failed", "error", err)
		return ""
	}

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Debug("ip lookup failed", "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("ip lookup returned non-200", "status", resp.StatusCode)
		return ""
	}

	var body struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		slog.Debug("ip lookup decode failed", "error", err)
		return ""
	}
	return body.IP
}
