// Package api implements the HTTP client for the countries API used by the
// CLI. Server error envelopes are mapped back onto the domain error taxonomy
// so callers can branch with errors.Is; transport-level failures surface as
// ErrUnavailable.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/worldscope/countries-api/internal/core/domain"
)

// ErrUnavailable indicates the server could not be reached at all.
var ErrUnavailable = errors.New("server unavailable")

const defaultTimeout = 15 * time.Second

// AuthPayload is the decoded response of login and register.
type AuthPayload struct {
	User  domain.Identity `json:"user"`
	Token string          `json:"token"`
}

// CurrentUser is the decoded response of GET /api/user.
type CurrentUser struct {
	ID                string   `json:"id"`
	Username          string   `json:"username"`
	FavoriteCountries []string `json:"favoriteCountries"`
}

// Country is the minimal slice of the catalog schema the CLI displays.
type Country struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	CCA3   string `json:"cca3"`
	Region string `json:"region"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API at baseURL. A non-positive timeout falls
// back to fifteen seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type favoritesBody struct {
	FavoriteCountries []string `json:"favoriteCountries"`
}

// Register creates an account. 409 maps to domain.ErrUserExists.
func (c *Client) Register(ctx context.Context, username, password string) (*AuthPayload, error) {
	var payload AuthPayload
	status, err := c.do(ctx, http.MethodPost, "/api/register", "", credentialsBody{username, password}, &payload)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusCreated:
		return &payload, nil
	case http.StatusConflict:
		return nil, domain.ErrUserExists
	case http.StatusBadRequest:
		return nil, domain.ErrInvalidCredentials
	default:
		return nil, unexpectedStatus(status)
	}
}

// Login authenticates. Any 401 maps to domain.ErrInvalidCredentials; the
// server deliberately does not distinguish unknown users from bad passwords.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthPayload, error) {
	var payload AuthPayload
	status, err := c.do(ctx, http.MethodPost, "/api/login", "", credentialsBody{username, password}, &payload)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return &payload, nil
	case http.StatusUnauthorized:
		return nil, domain.ErrInvalidCredentials
	default:
		return nil, unexpectedStatus(status)
	}
}

// Me returns the current identity and favorites for the given token.
func (c *Client) Me(ctx context.Context, token string) (*CurrentUser, error) {
	var user CurrentUser
	status, err := c.do(ctx, http.MethodGet, "/api/user", token, nil, &user)
	if err != nil {
		return nil, err
	}
	if err := protectedStatus(status); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListFavorites returns the authoritative server-side favorites set.
func (c *Client) ListFavorites(ctx context.Context, token string) ([]string, error) {
	return c.favoritesCall(ctx, http.MethodGet, "/api/favorites", token, nil)
}

// AddFavorite adds code and returns the resulting set.
func (c *Client) AddFavorite(ctx context.Context, token, code string) ([]string, error) {
	return c.favoritesCall(ctx, http.MethodPost, "/api/favorites", token, map[string]string{"countryCode": code})
}

// RemoveFavorite removes code and returns the resulting set.
func (c *Client) RemoveFavorite(ctx context.Context, token, code string) ([]string, error) {
	return c.favoritesCall(ctx, http.MethodDelete, "/api/favorites/"+url.PathEscape(code), token, nil)
}

// SearchCountries looks up catalog entries by name.
func (c *Client) SearchCountries(ctx context.Context, name string) ([]Country, error) {
	var countries []Country
	status, err := c.do(ctx, http.MethodGet, "/api/countries/name/"+url.PathEscape(name), "", nil, &countries)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return countries, nil
	case http.StatusNotFound:
		return nil, domain.ErrCountryNotFound
	default:
		return nil, unexpectedStatus(status)
	}
}

func (c *Client) favoritesCall(ctx context.Context, method, path, token string, body any) ([]string, error) {
	var resp favoritesBody
	status, err := c.do(ctx, method, path, token, body, &resp)
	if err != nil {
		return nil, err
	}
	if err := protectedStatus(status); err != nil {
		return nil, err
	}
	if resp.FavoriteCountries == nil {
		return []string{}, nil
	}
	return resp.FavoriteCountries, nil
}

// do issues a request and decodes a 2xx body into out. Non-2xx responses
// return the status with a nil error so callers can map it; out is left
// untouched in that case.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// protectedStatus maps status codes shared by all token-guarded endpoints.
func protectedStatus(status int) error {
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrInvalidToken
	case http.StatusNotFound:
		return domain.ErrUserNotFound
	default:
		return unexpectedStatus(status)
	}
}

func unexpectedStatus(status int) error {
	return fmt.Errorf("unexpected status %d", status)
}
