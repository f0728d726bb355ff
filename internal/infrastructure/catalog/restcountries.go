// Package catalog implements the upstream country data boundary: a thin
// HTTP client for the restcountries.com v3.1 API. Responses are relayed as
// raw JSON; this system never interprets the country schema.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/worldscope/countries-api/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a fetcher for the catalog at baseURL
// (e.g. https://restcountries.com/v3.1). A non-positive timeout falls back
// to ten seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) All(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/all")
}

func (c *Client) ByName(ctx context.Context, name string) (json.RawMessage, error) {
	return c.get(ctx, "/name/"+url.PathEscape(name))
}

func (c *Client) ByRegion(ctx context.Context, region string) (json.RawMessage, error) {
	return c.get(ctx, "/region/"+url.PathEscape(region))
}

func (c *Client) ByCode(ctx context.Context, code string) (json.RawMessage, error) {
	return c.get(ctx, "/alpha/"+url.PathEscape(code))
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrCountryNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("catalog fetch: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("catalog read: %w", err)
	}
	return json.RawMessage(body), nil
}
